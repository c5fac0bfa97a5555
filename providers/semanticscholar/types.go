package semanticscholar

// SearchResponse ist die Antwort von /paper/search der Graph API.
type SearchResponse struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Next   *int    `json:"next"`
	Data   []Paper `json:"data"`
}

// Paper repräsentiert einen einzelnen Treffer. Zeiger und nil-Slices markieren fehlende Felder.
type Paper struct {
	PaperID       string   `json:"paperId"`
	Title         *string  `json:"title"`
	Authors       []Author `json:"authors"`
	Year          *int     `json:"year"`
	CitationCount *int     `json:"citationCount"`
	URL           string   `json:"url"`
	OpenAccessPDF *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

// Author ist ein Autor eines Papers.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}
