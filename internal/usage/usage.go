package usage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anayy09/Navigator-AI-Console/internal/identity"
	"github.com/anayy09/Navigator-AI-Console/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry describes one relayed request for the audit log.
type Entry struct {
	RequestID   string            // Correlation ID.
	Kind        string            // chat, embeddings or transcribe.
	Model       string            // Requested model id.
	Identity    identity.Identity // Resolved caller identity.
	RequestedAt time.Time         // Start of the relay call.
	Duration    time.Duration     // Wall time spent relaying.
	Failed      bool              // Whether the relay failed.
	StatusCode  int               // Caller-facing HTTP status for failures, zero otherwise.
	ErrorDetail any               // Structured error payload for failures.
}

// Recorder persists request log rows. Recording is best-effort: failures are
// logged and never propagate to the caller.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder constructs a Recorder.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends a request log row for the entry.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.db == nil {
		return
	}

	row := models.RequestLog{
		RequestID:   e.RequestID,
		Kind:        e.Kind,
		Model:       e.Model,
		IdentityKey: e.Identity.Key,
		RequestedAt: e.RequestedAt.UTC(),
		DurationMS:  e.Duration.Milliseconds(),
		Failed:      e.Failed,
	}
	if e.Identity.IsAccount() {
		userID := e.Identity.UserID
		row.UserID = &userID
	}
	if e.Failed && e.StatusCode != 0 {
		statusCode := e.StatusCode
		row.ErrorStatusCode = &statusCode
	}
	if e.ErrorDetail != nil {
		if detail, errMarshal := json.Marshal(e.ErrorDetail); errMarshal == nil {
			row.ErrorDetail = datatypes.JSON(detail)
		}
	}

	if errCreate := r.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).WithFields(log.Fields{
			"kind":     e.Kind,
			"identity": e.Identity.Key,
		}).Warn("record request log failed")
	}
}
