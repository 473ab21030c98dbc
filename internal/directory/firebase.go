package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"carwash/pkg/logger"
	"carwash/pkg/model"
	"carwash/pkg/sanitizer"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/go-playground/validator/v10"
)

// SnapshotReader reads the value stored at a Realtime Database path into v.
type SnapshotReader interface {
	Get(ctx context.Context, path string, v any) error
}

type rtdbReader struct {
	client *db.Client
}

func (r *rtdbReader) Get(ctx context.Context, path string, v any) error {
	return r.client.NewRef(path).Get(ctx, v)
}

// NewRTDBReader opens the Realtime Database client of app.
func NewRTDBReader(ctx context.Context, app *firebase.App) (SnapshotReader, error) {
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open realtime database client: %w", err)
	}
	return &rtdbReader{client: client}, nil
}

// professionalRecord is the shape the registration app writes under the professionals node.
type professionalRecord struct {
	Name             string       `json:"name" validate:"required"`
	Phone            string       `json:"phone"`
	Email            string       `json:"email" validate:"omitempty,email"`
	NearestLocations locationList `json:"nearestLocations" validate:"required,min=1"`
	FCMToken         string       `json:"fcmToken"`
}

// locationList accepts both [1, 2] and ["1", "2"]; the registration form stores strings.
type locationList []int

func (l *locationList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("nearestLocations must be a list: %w", err)
	}

	out := make([]int, 0, len(raw))
	for _, item := range raw {
		var n int
		if err := json.Unmarshal(item, &n); err == nil {
			out = append(out, n)
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return fmt.Errorf("invalid location %s", string(item))
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid location %q", s)
		}
		out = append(out, n)
	}
	*l = out
	return nil
}

type FirebaseDirectory struct {
	reader   SnapshotReader
	path     string
	validate *validator.Validate
	log      *logger.Logger
}

func NewFirebaseDirectory(reader SnapshotReader, path string, log *logger.Logger) *FirebaseDirectory {
	return &FirebaseDirectory{
		reader:   reader,
		path:     path,
		validate: validator.New(),
		log:      log,
	}
}

// ListProfessionalsCoveringArea reads the whole professionals node; list membership cannot be
// queried server side. Malformed records are skipped, a failed read is returned as is.
func (d *FirebaseDirectory) ListProfessionalsCoveringArea(ctx context.Context, areaID int) ([]model.Professional, error) {
	var raw map[string]json.RawMessage
	if err := d.reader.Get(ctx, d.path, &raw); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.path, err)
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	professionals := make([]model.Professional, 0)
	for _, id := range ids {
		p, err := d.decode(id, raw[id])
		if err != nil {
			d.log.Warn("Skipping malformed professional record", "professional_id", id, "error", err)
			continue
		}
		if p.Covers(areaID) {
			professionals = append(professionals, *p)
		}
	}

	d.log.Debug("Directory lookup", "area_id", areaID, "records", len(raw), "covering", len(professionals))
	return professionals, nil
}

func (d *FirebaseDirectory) decode(id string, data json.RawMessage) (*model.Professional, error) {
	var rec professionalRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	rec.Name = sanitizer.SanitizeName(rec.Name)
	rec.Email = sanitizer.SanitizeEmail(rec.Email)
	if err := d.validate.Struct(&rec); err != nil {
		return nil, err
	}

	return &model.Professional{
		ID:       id,
		Name:     rec.Name,
		Phone:    sanitizer.SanitizePhone(rec.Phone),
		Email:    rec.Email,
		Coverage: sanitizer.SanitizeAreaIDs(rec.NearestLocations),
		FCMToken: rec.FCMToken,
	}, nil
}
