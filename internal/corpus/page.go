// Package corpus fetches the devlog and project corpus used to train cluster models.
package corpus

// Pagination is the paging envelope returned with every page.
type Pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Count int `json:"count"`
	Items int `json:"items"`
}

// Page is one decoded page of a paginated endpoint.
type Page interface {
	Pagination() Pagination
	Texts() []string
}

// Devlog is a single devlog entry. Only the text is used.
type Devlog struct {
	Text string `json:"text"`
}

// Project is a single project entry. Only the description is used.
type Project struct {
	Description string `json:"description"`
}

// Devlogs is a page of the devlogs endpoint.
type Devlogs struct {
	Devlogs []Devlog   `json:"devlogs"`
	Paging  Pagination `json:"pagination"`
}

// Pagination implements Page.
func (d *Devlogs) Pagination() Pagination { return d.Paging }

// Texts implements Page.
func (d *Devlogs) Texts() []string {
	out := make([]string, len(d.Devlogs))
	for i, l := range d.Devlogs {
		out[i] = l.Text
	}
	return out
}

// Projects is a page of the projects endpoint.
type Projects struct {
	Projects []Project `json:"projects"`
	Paging   Pagination `json:"pagination"`
}

// Pagination implements Page.
func (p *Projects) Pagination() Pagination { return p.Paging }

// Texts implements Page.
func (p *Projects) Texts() []string {
	out := make([]string, len(p.Projects))
	for i, pr := range p.Projects {
		out[i] = pr.Description
	}
	return out
}
