// Package model holds the entities exchanged with the article backend.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Author is the public profile embedded in articles and comments.
type Author struct {
	ID        int    `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Following bool   `json:"following"`
}

// FullName joins first and last name.
func (a Author) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type Tag struct {
	Name string `json:"name"`
}

// Article is a single published article as returned by GET /articles/{slug}.
type Article struct {
	ID         int           `json:"id"`
	Slug       string        `json:"slug"`
	Title      string        `json:"title"`
	Body       string        `json:"body"`
	Image      string        `json:"image,omitempty"`
	ReadTime   string        `json:"readTime,omitempty"`
	LikesCount int           `json:"likesCount"`
	Author     Author        `json:"author"`
	Tags       []Tag         `json:"Tags,omitempty"`
	Rating     ArticleRating `json:"rating"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Images decodes the image field, which the backend stores as a JSON-encoded
// array of URLs.
func (a Article) Images() ([]string, error) {
	if strings.TrimSpace(a.Image) == "" {
		return nil, nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(a.Image), &urls); err != nil {
		return nil, fmt.Errorf("decode article image: %w", err)
	}
	return urls, nil
}

// Published renders CreatedAt as e.g. "August 13th, 2019".
func (a Article) Published() string {
	if a.CreatedAt.IsZero() {
		return ""
	}
	d := a.CreatedAt.Day()
	return fmt.Sprintf("%s %d%s, %d", a.CreatedAt.Month(), d, ordinal(d), a.CreatedAt.Year())
}

func ordinal(d int) string {
	if d%100 >= 11 && d%100 <= 13 {
		return "th"
	}
	switch d % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// ArticleRating is the rating portion of an article. Response is nil until the
// reader has rated in this session; after a clean-up it is an empty, non-nil
// value.
type ArticleRating struct {
	AverageRating float64         `json:"averageRating,omitempty"`
	Response      *RatingResponse `json:"ratingResponse,omitempty"`
}

// Rated reports whether a rating response has been recorded, which locks the
// rating control.
func (r ArticleRating) Rated() bool { return r.Response != nil }

// RatingResponse is either a successful rating result or a fault. Both nil
// means the response has been cleaned up.
type RatingResponse struct {
	Result *RatingResult `json:"result,omitempty"`
	Fault  *Fault        `json:"fault,omitempty"`
}

// Empty reports whether the response has been cleaned up.
func (r RatingResponse) Empty() bool { return r.Result == nil && r.Fault == nil }

// Message is the notice shown to the reader once a rating settles.
func (r RatingResponse) Message() string {
	switch {
	case r.Fault != nil:
		return r.Fault.Message
	case r.Result != nil:
		return fmt.Sprintf("You rated this article %d stars", r.Result.Rating)
	}
	return ""
}

// Fault is the part of an error fault stored inside entities. It mirrors the
// backend's {status, data} failure envelope.
type Fault struct {
	Status  string `json:"status"`
	Message string `json:"data"`
}

// RatingResult is the data of a successful rating.
type RatingResult struct {
	Rating    Stars `json:"rating"`
	ArticleID int   `json:"articleId"`
}

// Stars is a 1..5 rating. The backend sends it either as a number or as a
// numeric string, possibly with a fraction; it is rounded to whole stars.
type Stars int

func (s *Stars) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("rating %s: %w", string(b), err)
	}
	*s = Stars(math.Round(f))
	return nil
}

// Comment is a reader comment. Body maps an edit timestamp to the text
// written at that time.
type Comment struct {
	ID              int               `json:"id"`
	Slug            string            `json:"slug"`
	Body            map[string]string `json:"body"`
	HighlightedText *string           `json:"highlightedText"`
	Author          Author            `json:"author"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Latest returns the most recent body text. Keys are compared as parsed
// timestamps when possible, lexically otherwise.
func (c Comment) Latest() string {
	if len(c.Body) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c.Body))
	for k := range c.Body {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, ei := parseBodyKey(keys[i])
		tj, ej := parseBodyKey(keys[j])
		if ei == nil && ej == nil {
			return ti.Before(tj)
		}
		return keys[i] < keys[j]
	})
	return c.Body[keys[len(keys)-1]]
}

// Body keys look like "Tue Aug 13 2019 08:04:23 GMT+0000".
func parseBodyKey(k string) (time.Time, error) {
	return time.Parse("Mon Jan 02 2006 15:04:05 GMT-0700", k)
}

// Like is the data returned when an article is liked.
type Like struct {
	ArticleID  int  `json:"articleId"`
	LikesCount int  `json:"likesCount"`
	Liked      bool `json:"liked"`
}

type Bookmark struct {
	ID        int       `json:"id"`
	ArticleID int       `json:"articleId"`
	UserID    int       `json:"userId"`
	Slug      string    `json:"slug,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Report struct {
	ID        int       `json:"id"`
	ArticleID int       `json:"articleId"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the signed-in account. The backend returns the bearer token inside
// the user object; it is persisted as-is under the "user" storage key.
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	Token     string `json:"token,omitempty"`
}

// SignupForm is the payload for account creation.
type SignupForm struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}
