package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rflorenc/tower-client/internal/tower"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const defaultPollInterval = 2 * time.Second

// JobStatus is one message on the job watch stream.
type JobStatus struct {
	ID       int    `json:"id"`
	Status   string `json:"status"`
	Failed   bool   `json:"failed"`
	Started  string `json:"started,omitempty"`
	Finished string `json:"finished,omitempty"`
}

func jobStatus(j *tower.Job) JobStatus {
	return JobStatus{
		ID:       j.ID(),
		Status:   j.Status(),
		Failed:   j.Failed(),
		Started:  j.Started(),
		Finished: j.Finished(),
	}
}

// WatchJob streams a job's status over WebSocket. A message is pushed for the
// initial status and for every change; the socket is closed normally, with the
// final status as reason, once the job is finished. Polling stops as soon as
// the client goes away.
func (s *Server) WatchJob(w http.ResponseWriter, r *http.Request) {
	a := s.connectionAPI(w, r)
	if a == nil {
		return
	}
	id, ok := intParam(w, r, "job")
	if !ok {
		return
	}
	job, err := a.Job(id)
	if err != nil {
		writeTowerError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Reading is needed to see the client's close frame or a dropped socket.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	last := ""
	for {
		if job.Status() != last {
			if err := conn.WriteJSON(jobStatus(job)); err != nil {
				return
			}
			last = job.Status()
		}
		if job.Done() {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, job.Status()))
			return
		}

		select {
		case <-gone:
			s.logger().Debug("job watcher disconnected", slog.Int("job", id))
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
		if err := job.Refresh(); err != nil {
			s.logger().Warn("refreshing watched job failed",
				slog.Int("job", id),
				slog.String("error", err.Error()),
			)
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "refresh failed"))
			return
		}
	}
}
