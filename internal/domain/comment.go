package domain

import "time"

// Author distinguishes who wrote a Comment.
type Author int

const (
	AuthorHuman Author = iota
	AuthorAgent
)

func (a Author) String() string {
	if a == AuthorAgent {
		return "agent"
	}
	return "human"
}

// Comment is an immutable message within a Thread.
type Comment struct {
	ID        string
	ThreadID  string
	Author    Author
	Body      string
	CreatedAt time.Time
}
