package openalex

// WorksResponse ist die Top-Level-Struktur der OpenAlex /works-Antwort.
type WorksResponse struct {
	Meta struct {
		Count   int `json:"count"`
		Page    int `json:"page"`
		PerPage int `json:"per_page"`
	} `json:"meta"`
	Results []Work `json:"results"`
}

// Work repräsentiert einen einzelnen Treffer.
type Work struct {
	ID              string       `json:"id"`
	DOI             string       `json:"doi"`
	DisplayName     *string      `json:"display_name"`
	PublicationYear *int         `json:"publication_year"`
	CitedByCount    *int         `json:"cited_by_count"`
	Authorships     []Authorship `json:"authorships"`
	PrimaryLocation *Location    `json:"primary_location"`
	OpenAccess      *OpenAccess  `json:"open_access"`
}

// Authorship verknüpft ein Werk mit einem Autor.
type Authorship struct {
	AuthorPosition string `json:"author_position"`
	Author         struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

// Location beschreibt, wo ein Werk veröffentlicht ist.
type Location struct {
	LandingPageURL string `json:"landing_page_url"`
	PDFURL         string `json:"pdf_url"`
}

// OpenAccess enthält den OA-Status eines Werks.
type OpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}
