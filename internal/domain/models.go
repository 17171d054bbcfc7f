package domain

type Project struct {
	ID             string `db:"id"`
	Slug           string `db:"slug"`
	Title          string `db:"title"`
	Description    string `db:"description"`
	TypeCategory   string `db:"type_category"`
	TypeTitle      string `db:"type_title"`
	LicenseTitle   string `db:"license_title"`
	StatusProject  string `db:"status_project"` // development | finished
	ImageURL       string `db:"image_url"`
	ImagesJSON     string `db:"images_json"`
	LinkPreview    string `db:"link_preview"`
	AuthorName     string `db:"author_name"`
	AuthorRole     string `db:"author_role"`
	AuthorPhotoURL string `db:"author_photo_url"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`

	Licenses []License `db:"-"`
}

// License is one pricing tier of a project. Price is an integer amount in
// whole currency units; zero marks the free tier.
type License struct {
	ProjectID    string `db:"project_id"`
	Title        string `db:"title"`
	Price        int64  `db:"price"`
	DownloadURL  string `db:"download_url"`
	Stock        int    `db:"stock"`
	Sold         int    `db:"sold"`
	DeliveryDays int    `db:"delivery_days"`
}

type Article struct {
	ID        string `db:"id"`
	Slug      string `db:"slug"`
	Title     string `db:"title"`
	Excerpt   string `db:"excerpt"`
	Content   string `db:"content"`
	ImageURL  string `db:"image_url"`
	Author    string `db:"author"`
	Published bool   `db:"published"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

type ContactMessage struct {
	ID        string `db:"id"`
	FullName  string `db:"full_name"`
	Email     string `db:"email"`
	Subject   string `db:"subject"`
	Message   string `db:"message"`
	Read      bool   `db:"read"`
	CreatedAt string `db:"created_at"`
}
