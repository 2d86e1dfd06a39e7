package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrEmptyComment  = errors.New("comment must not be empty")
	ErrMissingAuthor = errors.New("review author is required")
)

type Review struct {
	ID        uuid.UUID `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReview validates the input and stamps a fresh id. The comment is trimmed.
func NewReview(productID, userID, username string, rating int, comment string, now time.Time) (*Review, error) {
	if userID == "" {
		return nil, ErrMissingAuthor
	}
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrEmptyComment
	}

	return &Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Username:  username,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now.UTC(),
	}, nil
}

// IsValidationError reports whether err came from NewReview's input checks.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRating) || errors.Is(err, ErrEmptyComment) || errors.Is(err, ErrMissingAuthor)
}
