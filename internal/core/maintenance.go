package core

import (
	"context"
	"fmt"
	"strings"
)

// Maintenance returns a card with its schedule and intervention log.
func (s *Service) Maintenance(ctx context.Context, cardID int64) (*Maintenance, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	crons, err := s.store.ListCronogramas(ctx, cardID)
	if err != nil {
		return nil, err
	}
	ints, err := s.store.ListInterventions(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return &Maintenance{Card: &card, Cronogramas: crons, Interventions: ints}, nil
}

// ListCronogramas returns every schedule item across all cards.
func (s *Service) ListCronogramas(ctx context.Context) ([]Cronograma, error) {
	return s.store.ListCronogramas(ctx, 0)
}

// CreateCronograma schedules an activity for a card.
func (s *Service) CreateCronograma(ctx context.Context, c Cronograma) (Cronograma, error) {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return Cronograma{}, &FieldError{Field: "title", Err: ErrRequiredField}
	}
	if c.Date.IsZero() {
		return Cronograma{}, &FieldError{Field: "date", Err: ErrInvalidDate}
	}
	if _, err := s.store.GetCard(ctx, c.CardID); err != nil {
		return Cronograma{}, err
	}

	c, err := s.store.CreateCronograma(ctx, c)
	if err != nil {
		return Cronograma{}, err
	}

	s.recorder.Record(ctx, c.CardID, EventActivityPending,
		fmt.Sprintf("Actividad \"%s\" creada para el cronograma.", c.Title), "")
	return c, nil
}

// UpdateCronograma applies a partial update. Flipping the completed flag
// records an activity_completed or activity_pending event.
func (s *Service) UpdateCronograma(ctx context.Context, id int64, u CronogramaUpdate) (Cronograma, error) {
	c, err := s.store.GetCronograma(ctx, id)
	if err != nil {
		return Cronograma{}, err
	}

	wasCompleted := c.Completed
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return Cronograma{}, &FieldError{Field: "title", Err: ErrRequiredField}
		}
		c.Title = title
	}
	if u.Date != nil {
		if u.Date.IsZero() {
			return Cronograma{}, &FieldError{Field: "date", Err: ErrInvalidDate}
		}
		c.Date = *u.Date
	}
	if u.Completed != nil {
		c.Completed = *u.Completed
	}

	c, err = s.store.UpdateCronograma(ctx, c)
	if err != nil {
		return Cronograma{}, err
	}

	if c.Completed != wasCompleted {
		typ, state := EventActivityPending, "pendiente"
		if c.Completed {
			typ, state = EventActivityCompleted, "completada"
		}
		s.recorder.Record(ctx, c.CardID, typ,
			fmt.Sprintf("Actividad \"%s\" marcada como %s.", c.Title, state), "")
	}
	return c, nil
}

// CreateIntervention logs maintenance work on a card.
func (s *Service) CreateIntervention(ctx context.Context, i Intervention) (Intervention, error) {
	if !i.ActionType.Valid() {
		return Intervention{}, &FieldError{Field: "action_type", Value: string(i.ActionType), Err: ErrInvalidActionType}
	}
	if i.Date.IsZero() {
		return Intervention{}, &FieldError{Field: "date", Err: ErrInvalidDate}
	}
	i.Description = strings.TrimSpace(i.Description)
	i.Responsible = strings.TrimSpace(i.Responsible)
	if i.Description == "" {
		return Intervention{}, &FieldError{Field: "description", Err: ErrRequiredField}
	}
	if _, err := s.store.GetCard(ctx, i.CardID); err != nil {
		return Intervention{}, err
	}

	i, err := s.store.CreateIntervention(ctx, i)
	if err != nil {
		return Intervention{}, err
	}

	s.recorder.Record(ctx, i.CardID, EventInterventionCreated, "Intervención creada: "+i.Description, "")
	return i, nil
}
