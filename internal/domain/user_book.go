package domain

import (
	"time"
)

// BookStatus is a user's library state for a book.
type BookStatus string

// Library states.
const (
	StatusDesired   BookStatus = "desired"
	StatusCurrent   BookStatus = "current"
	StatusCompleted BookStatus = "completed"
	StatusAbandoned BookStatus = "abandoned"
)

// Valid reports whether s is a known status.
func (s BookStatus) Valid() bool {
	switch s {
	case StatusDesired, StatusCurrent, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// UserBook is the relationship between one user and one book.
// UserFID and BookKey duplicate what the composite id encodes so the
// relationship can be queried by either side.
type UserBook struct {
	ID               string     `json:"id"`
	UserFID          int64      `json:"userFid"`
	BookKey          string     `json:"bookKey"`
	BookTitle        string     `json:"bookTitle"`
	BookAuthors      []string   `json:"bookAuthors,omitempty"`
	CoverID          *int       `json:"coverId,omitempty"`
	CoverURL         string     `json:"coverUrl,omitempty"`
	Status           BookStatus `json:"status"`
	Review           string     `json:"review,omitempty"`
	LikeCount        int64      `json:"likeCount"`
	LastPageRead     *int       `json:"lastPageRead,omitempty"`
	StartedReadingAt *time.Time `json:"startedReadingAt,omitempty"`
	LoggedAt         time.Time  `json:"loggedAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// RelationshipID builds the composite key of a (user, book) pair.
func RelationshipID(fid int64, bookKey string) string {
	return FIDString(fid) + "_" + NormalizeBookKey(bookKey)
}

// UserBookWithProfile joins a relationship with its owner's display fields.
// The display fields stay empty when the owner lookup fails.
type UserBookWithProfile struct {
	UserBook
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PfpURL      string `json:"pfpUrl,omitempty"`
}

// BookRef is what a client knows about a book when it logs it.
type BookRef struct {
	Key              string   `json:"key" validate:"required,bookkey"`
	Title            string   `json:"title" validate:"required"`
	AuthorNames      []string `json:"author_name,omitempty"`
	CoverID          *int     `json:"cover_i,omitempty"`
	CoverURL         string   `json:"coverUrl,omitempty"`
	FirstPublishYear *int     `json:"first_publish_year,omitempty"`
	ISBN             []string `json:"isbn,omitempty"`
}
