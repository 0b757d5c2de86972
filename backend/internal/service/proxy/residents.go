package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pssuai-admin/backend/internal/infra/metrics"
	"pssuai-admin/backend/internal/infra/remote"
)

// RemoteStatusNotFoundBoth marks a delete where no candidate path succeeded.
const RemoteStatusNotFoundBoth = "not_found_both"

const maxAttemptBody = 200

// DeleteAttempt records one remote delete call.
type DeleteAttempt struct {
	Path   string `json:"path"`
	Status int    `json:"status,omitempty"`
	Body   string `json:"body,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (a DeleteAttempt) succeeded() bool {
	return a.Error == "" && (a.Status == http.StatusOK || a.Status == http.StatusNoContent)
}

// RemoteInfo explains the remote half of a resident delete.
// On success it is the winning attempt; otherwise Status is RemoteStatusNotFoundBoth.
type RemoteInfo struct {
	Path   string         `json:"path,omitempty"`
	Status any            `json:"status"`
	Last   *DeleteAttempt `json:"last,omitempty"`
}

// DeleteOutcome is the result of DeleteResident.
type DeleteOutcome struct {
	RemoteOK   bool
	RemoteInfo RemoteInfo
	Affected   int64
}

// residentDeletePaths lists the upstream delete candidates, tried in order.
func residentDeletePaths(id int64) []string {
	return []string{
		fmt.Sprintf("/residents/%d", id),
		fmt.Sprintf("/registrations/%d", id),
	}
}

// residentListPaths lists the upstream resident listings, tried in order while they 404.
var residentListPaths = []string{"/residents", "/registrations?status=approved"}

// DeleteResident deletes id upstream, then locally. Only a local store error is returned;
// the outcome carries the remote result either way.
func (s *Service) DeleteResident(ctx context.Context, id int64) (DeleteOutcome, error) {
	remoteOK, info := s.deleteRemote(ctx, id)
	metrics.RecordResidentDelete(remoteOK)

	outcome := DeleteOutcome{RemoteOK: remoteOK, RemoteInfo: info}
	if s.residents == nil {
		return outcome, errors.New("resident store not configured")
	}

	affected, err := s.residents.DeleteByID(ctx, id)
	if err != nil {
		s.logger.Errorw("local resident delete failed", "resident_id", id, "remote_ok", remoteOK, "error", err)
		return outcome, err
	}
	outcome.Affected = affected

	s.logger.Infow("resident deleted", "resident_id", id, "remote_ok", remoteOK, "remote_status", info.Status, "affected", affected)
	return outcome, nil
}

func (s *Service) deleteRemote(ctx context.Context, id int64) (bool, RemoteInfo) {
	var last *DeleteAttempt
	for _, path := range residentDeletePaths(id) {
		attempt := s.attemptDelete(ctx, path)
		if attempt.succeeded() {
			return true, RemoteInfo{Path: attempt.Path, Status: attempt.Status}
		}
		s.logger.Debugw("resident delete candidate failed", "path", path, "status", attempt.Status, "error", attempt.Error)
		last = &attempt
	}
	return false, RemoteInfo{Status: RemoteStatusNotFoundBoth, Last: last}
}

func (s *Service) attemptDelete(ctx context.Context, path string) DeleteAttempt {
	start := time.Now()
	status, body, err := s.upstream.Delete(ctx, path, s.cfg.DeleteTimeout)
	outcome := "ok"
	attempt := DeleteAttempt{Path: path, Status: status}
	switch {
	case err != nil:
		outcome = remote.KindTransportError.String()
		attempt.Status = 0
		attempt.Error = remote.Truncate(err.Error(), maxAttemptBody)
	case status != http.StatusOK && status != http.StatusNoContent:
		outcome = remote.KindRemoteError.String()
		attempt.Body = remote.Truncate(body, maxAttemptBody)
	}
	metrics.ObserveUpstream("residents-delete", outcome, time.Since(start))
	return attempt
}

// LookupResidents fetches the resident listing, moving to the next path while upstream answers 404.
// The last 404 is returned when every path 404s.
func (s *Service) LookupResidents(ctx context.Context) (*remote.RawResponse, error) {
	var last *remote.RawResponse
	for _, path := range residentListPaths {
		start := time.Now()
		resp, err := s.upstream.Get(ctx, path, s.cfg.LookupTimeout)
		if err != nil {
			metrics.ObserveUpstream("residents", remote.KindTransportError.String(), time.Since(start))
			s.logger.Errorw("resident lookup failed", "path", path, "error", err)
			return nil, err
		}
		metrics.ObserveUpstream("residents", statusOutcome(resp.StatusCode), time.Since(start))
		s.logger.Infow("resident lookup", "path", path, "status", resp.StatusCode)

		if resp.StatusCode != http.StatusNotFound {
			return resp, nil
		}
		last = resp
	}
	return last, nil
}

func statusOutcome(status int) string {
	if status >= 200 && status < 300 {
		return remote.KindRows.String()
	}
	return remote.KindRemoteError.String()
}
