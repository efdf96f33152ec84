// Package goodreads queries the Goodreads auto_complete endpoint to attach
// rating and popularity data to works.
package goodreads

// Author is the candidate's author record.
type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Result is one candidate record from the auto_complete endpoint. Absence of
// a result means "not found", not an error.
type Result struct {
	ImageURL      string `json:"imageUrl"`
	BookID        string `json:"bookId"`
	WorkID        string `json:"workId"`
	BookURL       string `json:"bookUrl"`
	Rank          int    `json:"rank"`
	Title         string `json:"title"`
	BookTitleBare string `json:"bookTitleBare"`
	NumPages      int    `json:"numPages"`
	AvgRating     string `json:"avgRating"`
	RatingsCount  int    `json:"ratingsCount"`
	Author        Author `json:"author"`
}
