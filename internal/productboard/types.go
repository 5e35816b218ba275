package productboard

// Feature is a Productboard feature record. All records are owned by the
// remote system; the client never mutates them locally.
type Feature struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        string         `json:"type,omitempty"`
	Status      *FeatureStatus `json:"status,omitempty"`
	Parent      *EntityRef     `json:"parent,omitempty"`
	Owner       *FeatureOwner  `json:"owner,omitempty"`
	Timeframe   *Timeframe     `json:"timeframe,omitempty"`
	Archived    bool           `json:"archived,omitempty"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`
}

// FeatureStatus is the workflow status of a feature.
type FeatureStatus struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// FeatureOwner identifies the feature owner by email.
type FeatureOwner struct {
	Email string `json:"email,omitempty"`
}

// Timeframe is a feature's planned start/end window.
type Timeframe struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// EntityRef points at a containing entity. Exactly one of the fields is
// set; components may nest under a product or under another component,
// forming a possibly multi-level tree.
type EntityRef struct {
	Product   *IDRef `json:"product,omitempty"`
	Component *IDRef `json:"component,omitempty"`
	Feature   *IDRef `json:"feature,omitempty"`
}

// IDRef is an opaque identifier reference.
type IDRef struct {
	ID string `json:"id"`
}

// Product is a top-level Productboard product.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Component is a grouping under a product (or under another component).
type Component struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Parent      *EntityRef `json:"parent,omitempty"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	UpdatedAt   string     `json:"updatedAt,omitempty"`
}

// Hierarchy is the raw material for product tree assembly: both
// collections fetched concurrently and returned unmerged. The tool layer
// reconstructs the tree from the components' parent references.
type Hierarchy struct {
	Products   []Product   `json:"products"`
	Components []Component `json:"components"`
}

// Note is a piece of customer feedback.
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content,omitempty"`
	DisplayURL string    `json:"displayUrl,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	User       *NoteUser `json:"user,omitempty"`
	Company    *IDRef    `json:"company,omitempty"`
	CreatedAt  string    `json:"createdAt,omitempty"`
	UpdatedAt  string    `json:"updatedAt,omitempty"`
}

// NoteUser is the note author reference.
type NoteUser struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
}

// User is a Productboard workspace member.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}
