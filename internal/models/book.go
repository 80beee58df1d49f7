package models

import "time"

type Author struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	BooksCount int       `json:"books_count"`
	CreatedAt  time.Time `json:"-"`
}

// AuthorDetail is an author together with the books it owns.
type AuthorDetail struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Books []Book `json:"books"`
}

// Book is the public representation; Author holds the author id.
type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	PublicationYear int       `json:"publication_year"`
	Author          int64     `json:"author"`
	CoverKey        string    `json:"-"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

type Library struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	BooksCount int    `json:"books_count"`
}

type Librarian struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	LibraryID int64  `json:"library"`
}

type LibraryDetail struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Books     []Book     `json:"books"`
	Librarian *Librarian `json:"librarian"`
}
