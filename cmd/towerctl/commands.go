package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/rflorenc/tower-client/internal/tower"
)

type cli struct {
	api *tower.API
	out io.Writer
}

type command func(c *cli, args []string) error

var commands = map[string]command{
	"templates": listTemplates,
	"projects":  listProjects,
	"survey":    showSurvey,
	"launch":    launchTemplate,
	"job":       showJob,
}

var bold = color.New(color.Bold).SprintFunc()

func (c *cli) table(header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for i, h := range header {
		header[i] = bold(h)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func listTemplates(c *cli, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("templates takes no arguments")
	}
	templates, err := c.api.JobTemplates().All()
	if err != nil {
		return err
	}
	tw := c.table("ID", "NAME", "PLAYBOOK", "LIMIT", "SURVEY")
	for _, jt := range templates {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", jt.ID(), jt.Name(), jt.Playbook(), jt.Limit(), jt.SurveyEnabled())
	}
	return tw.Flush()
}

func listProjects(c *cli, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("projects takes no arguments")
	}
	projects, err := c.api.Projects().All()
	if err != nil {
		return err
	}
	tw := c.table("ID", "NAME", "SCM", "BRANCH", "STATUS")
	for _, p := range projects {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID(), p.Name(), p.ScmType(), p.ScmBranch(), p.Status())
	}
	return tw.Flush()
}

func showSurvey(c *cli, args []string) error {
	id, err := oneID("survey", args)
	if err != nil {
		return err
	}
	jt, err := c.api.JobTemplate(id)
	if err != nil {
		return err
	}
	spec, err := jt.SurveySpecHash()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, string(data))
	return nil
}

func launchTemplate(c *cli, args []string) error {
	fs := pflag.NewFlagSet("launch", pflag.ContinueOnError)
	extraVars := fs.String("extra-vars", "", "Extra variables as JSON, or YAML starting with ---; @file reads them from a file")
	limit := fs.String("limit", "", "Host pattern to limit the run to")
	watch := fs.Bool("watch", false, "Poll the job until it finishes")
	interval := fs.Duration("interval", 2*time.Second, "Poll interval for --watch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := oneID("launch", fs.Args())
	if err != nil {
		return err
	}

	params := tower.LaunchParams{}
	if *extraVars != "" {
		text := *extraVars
		if strings.HasPrefix(text, "@") {
			data, err := os.ReadFile(text[1:])
			if err != nil {
				return fmt.Errorf("reading extra vars: %w", err)
			}
			text = string(data)
		}
		params["extra_vars"] = text
	}
	if *limit != "" {
		params["limit"] = *limit
	}
	if err := params.Validate(); err != nil {
		return err
	}

	jt, err := c.api.JobTemplate(id)
	if err != nil {
		return err
	}
	job, err := jt.Launch(params)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Launched job %d from %q: %s\n", job.ID(), jt.Name(), statusColor(job.Status()))
	if !*watch {
		return nil
	}
	return c.watch(job, *interval)
}

// watch prints every status change until the job finishes.
func (c *cli) watch(job *tower.Job, interval time.Duration) error {
	last := job.Status()
	for !job.Done() {
		time.Sleep(interval)
		if err := job.Refresh(); err != nil {
			return err
		}
		if s := job.Status(); s != last {
			fmt.Fprintf(c.out, "job %d: %s\n", job.ID(), statusColor(s))
			last = s
		}
	}
	if job.Failed() {
		return fmt.Errorf("job %d %s", job.ID(), job.Status())
	}
	return nil
}

func showJob(c *cli, args []string) error {
	fs := pflag.NewFlagSet("job", pflag.ContinueOnError)
	stdout := fs.Bool("stdout", false, "Also print the job output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := oneID("job", fs.Args())
	if err != nil {
		return err
	}
	job, err := c.api.Job(id)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%d\n", bold("ID"), job.ID())
	fmt.Fprintf(tw, "%s\t%s\n", bold("NAME"), job.Name())
	fmt.Fprintf(tw, "%s\t%s\n", bold("STATUS"), statusColor(job.Status()))
	fmt.Fprintf(tw, "%s\t%d\n", bold("TEMPLATE"), job.JobTemplateID())
	fmt.Fprintf(tw, "%s\t%s\n", bold("LIMIT"), job.Limit())
	fmt.Fprintf(tw, "%s\t%s\n", bold("STARTED"), job.Started())
	fmt.Fprintf(tw, "%s\t%s\n", bold("FINISHED"), job.Finished())
	if err := tw.Flush(); err != nil {
		return err
	}
	if !*stdout {
		return nil
	}
	out, err := job.Stdout()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out)
	fmt.Fprint(c.out, out)
	return nil
}

func statusColor(status string) string {
	switch status {
	case tower.JobSuccessful:
		return color.GreenString(status)
	case tower.JobFailed, tower.JobError, tower.JobCanceled:
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}

func oneID(cmd string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: towerctl %s <id>", cmd)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid id %q", cmd, args[0])
	}
	return id, nil
}
