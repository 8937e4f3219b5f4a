package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

func newCard(in CardInput) Card {
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	return Card{
		Name:        in.Name,
		Brand:       in.Brand,
		Model:       in.Model,
		Series:      in.Series,
		Risk:        in.Risk,
		Location:    in.Location,
		Status:      status,
		AccessToken: uuid.New(),
	}
}

// NextStatus returns the status a toggle moves to: only an exact
// "Fuera de servicio" goes back to "Activo"; anything else goes out of
// service.
func NextStatus(current string) string {
	if current == StatusOutOfOrder {
		return StatusActive
	}
	return StatusOutOfOrder
}

// ListCards returns cards that are not soft-deleted.
func (s *Service) ListCards(ctx context.Context) ([]Card, error) {
	return s.store.ListCards(ctx, CardFilter{State: ActiveCards})
}

// ListDeletedCards returns soft-deleted cards.
func (s *Service) ListDeletedCards(ctx context.Context) ([]Card, error) {
	return s.store.ListCards(ctx, CardFilter{State: DeletedCards})
}

// SearchCards matches card names case-insensitively across all cards.
// An empty query returns nothing.
func (s *Service) SearchCards(ctx context.Context, query string) ([]Card, error) {
	if query == "" {
		return []Card{}, nil
	}
	return s.store.ListCards(ctx, CardFilter{State: AllCards, NameContains: query})
}

// GetCard returns a card in any state.
func (s *Service) GetCard(ctx context.Context, id int64) (Card, error) {
	return s.store.GetCard(ctx, id)
}

// CardByAccessToken returns the card only when token matches its access
// token. Used for unauthenticated lookups from printed labels.
func (s *Service) CardByAccessToken(ctx context.Context, id int64, token string) (Card, error) {
	card, err := s.store.GetCard(ctx, id)
	if err != nil {
		return Card{}, err
	}
	want := card.AccessToken.String()
	if subtle.ConstantTimeCompare([]byte(want), []byte(token)) != 1 {
		return Card{}, ErrInvalidAccessToken
	}
	return card, nil
}

// CreateCard registers a card entered by hand.
func (s *Service) CreateCard(ctx context.Context, in CardInput) (Card, error) {
	in, err := in.normalize()
	if err != nil {
		return Card{}, err
	}

	card, err := s.store.CreateCard(ctx, newCard(in))
	if err != nil {
		return Card{}, err
	}

	s.recorder.Record(ctx, card.ID, EventCardCreated, "Tarjeta creada: "+card.Name, "")
	return card, nil
}

// UpdateCard replaces a card's editable fields. An empty status keeps the
// current one.
func (s *Service) UpdateCard(ctx context.Context, id int64, in CardInput) (Card, error) {
	in, err := in.normalize()
	if err != nil {
		return Card{}, err
	}

	card, err := s.store.GetCard(ctx, id)
	if err != nil {
		return Card{}, err
	}

	card.Name = in.Name
	card.Brand = in.Brand
	card.Model = in.Model
	card.Series = in.Series
	card.Risk = in.Risk
	card.Location = in.Location
	if in.Status != "" {
		card.Status = in.Status
	}

	card, err = s.store.UpdateCard(ctx, card)
	if err != nil {
		return Card{}, err
	}

	s.recorder.Record(ctx, card.ID, EventCardUpdated, "Tarjeta actualizada: "+card.Name, "")
	return card, nil
}

// ToggleStatus flips a card between in service and out of service.
func (s *Service) ToggleStatus(ctx context.Context, id int64) (Card, error) {
	card, err := s.store.GetCard(ctx, id)
	if err != nil {
		return Card{}, err
	}

	old := card.Status
	card.Status = NextStatus(old)

	card, err = s.store.UpdateCard(ctx, card)
	if err != nil {
		return Card{}, err
	}

	s.recorder.Record(ctx, card.ID, EventStatusChanged,
		fmt.Sprintf("Estado cambiado de \"%s\" a \"%s\"", old, card.Status), "")
	return card, nil
}

// SoftDeleteCard hides a card from the active list.
func (s *Service) SoftDeleteCard(ctx context.Context, id int64) (Card, error) {
	return s.setCardDeleted(ctx, id, true)
}

// RestoreCard brings a soft-deleted card back.
func (s *Service) RestoreCard(ctx context.Context, id int64) (Card, error) {
	return s.setCardDeleted(ctx, id, false)
}

func (s *Service) setCardDeleted(ctx context.Context, id int64, deleted bool) (Card, error) {
	card, err := s.store.GetCard(ctx, id)
	if err != nil {
		return Card{}, err
	}
	if card.IsDeleted == deleted {
		return card, nil
	}

	card.IsDeleted = deleted
	card, err = s.store.UpdateCard(ctx, card)
	if err != nil {
		return Card{}, err
	}

	if deleted {
		s.recorder.Record(ctx, card.ID, EventCardDeleted, "Tarjeta eliminada: "+card.Name, "")
	} else {
		s.recorder.Record(ctx, card.ID, EventCardRestored, "Tarjeta restaurada: "+card.Name, "")
	}
	return card, nil
}

// DeleteCard permanently removes a card and everything it owns.
func (s *Service) DeleteCard(ctx context.Context, id int64) error {
	return s.store.DeleteCard(ctx, id)
}

// NewestCards returns up to n cards with the highest IDs, newest first,
// regardless of soft-delete state.
func (s *Service) NewestCards(ctx context.Context, n int) ([]Card, error) {
	if n <= 0 {
		return []Card{}, nil
	}
	cards, err := s.store.ListCards(ctx, CardFilter{State: AllCards})
	if err != nil {
		return nil, err
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID > cards[j].ID })
	if len(cards) > n {
		cards = cards[:n]
	}
	return cards, nil
}

// DeleteCards hard-deletes the given cards in order and returns the IDs
// actually removed. Cards that are already gone are skipped; any other
// failure stops the batch.
func (s *Service) DeleteCards(ctx context.Context, ids []int64) ([]int64, error) {
	deleted := make([]int64, 0, len(ids))
	for _, id := range ids {
		err := s.store.DeleteCard(ctx, id)
		if errors.Is(err, ErrCardNotFound) {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("delete card %d: %w", id, err)
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}
