// Package progress defines the event stream emitted by a crawl run and the
// hub that fans events out to observability sinks. The hub is opened at run
// start and flushed/closed at run end; components receive it by injection
// rather than through ambient state.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported progress stages.
const (
	StageRunStart       Stage = "RUN_START"
	StageRunDone        Stage = "RUN_DONE"
	StageFetchDone      Stage = "FETCH_DONE"
	StagePageClassified Stage = "PAGE_CLASSIFIED"
	StageRecordEmitted  Stage = "RECORD_EMITTED"
	StageRecordRejected Stage = "RECORD_REJECTED"
	StageAssistDegraded Stage = "ASSIST_DEGRADED"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported HTTP status classes.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures a single crawl milestone.
type Event struct {
	// RunID identifies the crawl run in 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage says which milestone occurred.
	Stage Stage
	// Host scopes fetch and classification events to a site.
	Host string
	// URL is the page URL, when one applies.
	URL string
	// StatusClass groups the HTTP response code of a fetch.
	StatusClass StatusClass
	// Label carries the classifier verdict for PAGE_CLASSIFIED events.
	Label string
	// Bytes is the response body size for fetch events.
	Bytes int64
	// Dur is the latency of the fetch or the whole run.
	Dur time.Duration
	// Note attaches low-volume context such as error text.
	Note string
}

// Validate performs coarse validation so sinks never see nonsense events.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageAssistDegraded:
	case StageFetchDone:
		if e.StatusClass == "" {
			return errors.New("fetch done requires status class")
		}
	case StagePageClassified:
		if e.Label == "" {
			return errors.New("page classified requires label")
		}
	case StageRecordEmitted, StageRecordRejected:
		if e.URL == "" {
			return errors.New("record events require url")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// ClassifyStatus groups HTTP status codes for fetch events.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}
