package availability

// Result answers "is this bed usable right now". Reason is non-empty
// for every negative answer; calling workflows branch on it to decide
// between retrying later and failing hard.
type Result struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
