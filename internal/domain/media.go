package domain

// Chapter is a chapter marker read from a media container.
type Chapter struct {
	Name  string  `json:"name"`
	Start float64 `json:"start"` // seconds from the beginning of the file
}

// BlackFrame is one sampled frame whose black pixel share met the threshold.
type BlackFrame struct {
	Time    float64 `json:"time"` // absolute seconds within the file
	Percent int     `json:"percent"`
}
