package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card status values. Status is free text in storage; these are the two
// values the toggle moves between.
const (
	StatusActive     = "Activo"
	StatusOutOfOrder = "Fuera de servicio"
)

// RiskClass is the regulatory risk classification of a device.
type RiskClass string

const (
	RiskNone RiskClass = ""
	RiskI    RiskClass = "I"
	RiskIIA  RiskClass = "IIA"
	RiskIIB  RiskClass = "IIB"
	RiskIII  RiskClass = "III"
)

// RiskClasses lists the accepted classifications in ascending order.
var RiskClasses = []RiskClass{RiskI, RiskIIA, RiskIIB, RiskIII}

// ParseRiskClass accepts a classification case-insensitively, ignoring
// surrounding whitespace and inner spaces ("ii a" is IIA). An empty
// value is allowed and yields RiskNone.
func ParseRiskClass(s string) (RiskClass, error) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if s == "" {
		return RiskNone, nil
	}
	for _, rc := range RiskClasses {
		if string(rc) == s {
			return rc, nil
		}
	}
	return RiskNone, &FieldError{Field: ColRisk, Value: s, Err: ErrInvalidRisk}
}

// Card is a single piece of biomedical equipment and the aggregate root
// for documents, schedule items, interventions and history.
type Card struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	Series      string    `json:"series"`
	Risk        RiskClass `json:"risk_classification"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	Image       string    `json:"image"`
	IsDeleted   bool      `json:"is_deleted"`
	AccessToken uuid.UUID `json:"access_token"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CardInput carries the editable fields of a card.
type CardInput struct {
	Name     string    `json:"name"`
	Brand    string    `json:"brand"`
	Model    string    `json:"model"`
	Series   string    `json:"series"`
	Risk     RiskClass `json:"risk_classification"`
	Location string    `json:"location"`
	Status   string    `json:"status"`
}

// normalize trims every field and validates the classification.
func (in CardInput) normalize() (CardInput, error) {
	out := CardInput{
		Name:     strings.TrimSpace(in.Name),
		Brand:    strings.TrimSpace(in.Brand),
		Model:    strings.TrimSpace(in.Model),
		Series:   strings.TrimSpace(in.Series),
		Location: strings.TrimSpace(in.Location),
		Status:   strings.TrimSpace(in.Status),
	}
	if out.Name == "" {
		return out, &FieldError{Field: ColName, Err: ErrRequiredField}
	}
	risk, err := ParseRiskClass(string(in.Risk))
	if err != nil {
		return out, err
	}
	out.Risk = risk
	return out, nil
}

// Document is a file attached to a card.
type Document struct {
	ID         int64     `json:"id"`
	CardID     int64     `json:"card_id"`
	Title      string    `json:"title"`
	File       string    `json:"file"`
	UploadedAt time.Time `json:"uploaded_at"`
	IsDeleted  bool      `json:"is_deleted"`
}

// Cronograma is a scheduled maintenance activity.
type Cronograma struct {
	ID        int64     `json:"id"`
	CardID    int64     `json:"card_id"`
	Date      time.Time `json:"date"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
}

// CronogramaUpdate is a partial update; nil fields are left unchanged.
type CronogramaUpdate struct {
	Date      *time.Time `json:"date,omitempty"`
	Title     *string    `json:"title,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
}

// ActionType classifies an intervention.
type ActionType string

const (
	ActionCorrective  ActionType = "correctiva"
	ActionPreventive  ActionType = "preventiva"
	ActionCalibration ActionType = "calibracion"
)

var actionLabels = map[ActionType]string{
	ActionCorrective:  "Correctiva",
	ActionPreventive:  "Preventiva",
	ActionCalibration: "Calibración",
}

// Label returns the display name of the action type.
func (a ActionType) Label() string {
	return actionLabels[a]
}

// Valid reports whether a is one of the known action types.
func (a ActionType) Valid() bool {
	_, ok := actionLabels[a]
	return ok
}

// Intervention records corrective, preventive or calibration work.
type Intervention struct {
	ID          int64      `json:"id"`
	CardID      int64      `json:"card_id"`
	ActionType  ActionType `json:"action_type"`
	Date        time.Time  `json:"date"`
	Description string     `json:"description"`
	Responsible string     `json:"responsible"`
}

// MarshalJSON adds action_type_display, the label shown next to the
// action type.
func (i Intervention) MarshalJSON() ([]byte, error) {
	type plain Intervention
	return json.Marshal(struct {
		plain
		ActionTypeDisplay string `json:"action_type_display"`
	}{plain(i), i.ActionType.Label()})
}

// Maintenance groups a card's schedule and intervention log.
type Maintenance struct {
	Card          *Card          `json:"card"`
	Cronogramas   []Cronograma   `json:"cronogramas"`
	Interventions []Intervention `json:"intervenciones"`
}
