package models

import (
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocalizedPost holds translated blog copy.
type LocalizedPost struct {
	Title   string `bson:"title,omitempty" json:"title,omitempty"`
	Excerpt string `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
	Content string `bson:"content,omitempty" json:"content,omitempty"`
}

// BlogPost is an article on the marketing site.
type BlogPost struct {
	Base         `bson:",inline"`
	Title        string                   `bson:"title" json:"title"`
	Slug         string                   `bson:"slug" json:"slug"`
	Excerpt      string                   `bson:"excerpt" json:"excerpt"`
	Content      string                   `bson:"content" json:"content"`
	Author       string                   `bson:"author" json:"author"`
	CoverImage   string                   `bson:"cover_image,omitempty" json:"coverImage,omitempty"`
	Tags         []string                 `bson:"tags" json:"tags"`
	Published    bool                     `bson:"published" json:"published"`
	PublishedAt  *time.Time               `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
	Translations map[string]LocalizedPost `bson:"translations,omitempty" json:"translations,omitempty"`
}

func (p *BlogPost) Validate() error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return invalid("title is required")
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	} else {
		p.Slug = Slugify(p.Slug)
	}
	if p.Slug == "" {
		return invalid("slug is required")
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Published && p.PublishedAt == nil {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
	return nil
}

// Localize swaps in the translated copy for locale when present.
func (p *BlogPost) Localize(locale string) {
	t, ok := p.Translations[locale]
	if !ok {
		return
	}
	if t.Title != "" {
		p.Title = t.Title
	}
	if t.Excerpt != "" {
		p.Excerpt = t.Excerpt
	}
	if t.Content != "" {
		p.Content = t.Content
	}
}

// InquiryStatus is the handling state of a contact-form inquiry.
type InquiryStatus string

const (
	InquiryNew        InquiryStatus = "new"
	InquiryInProgress InquiryStatus = "in_progress"
	InquiryResolved   InquiryStatus = "resolved"
	InquirySpam       InquiryStatus = "spam"
)

// Inquiry is a message sent through the contact or quote form.
type Inquiry struct {
	Base      `bson:",inline"`
	Name      string              `bson:"name" json:"name"`
	Email     string              `bson:"email" json:"email"`
	Phone     string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Company   string              `bson:"company,omitempty" json:"company,omitempty"`
	Subject   string              `bson:"subject" json:"subject"`
	Message   string              `bson:"message" json:"message"`
	ProductID *primitive.ObjectID `bson:"product_id,omitempty" json:"productId,omitempty"`
	Quantity  int                 `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Status    InquiryStatus       `bson:"status" json:"status"`
	Notes     string              `bson:"notes,omitempty" json:"notes,omitempty"`
}

func (q *Inquiry) Validate() error {
	q.Name = strings.TrimSpace(q.Name)
	q.Message = strings.TrimSpace(q.Message)
	if q.Name == "" {
		return invalid("name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(q.Email)); err != nil {
		return invalid("email is not a valid address")
	}
	if q.Message == "" {
		return invalid("message is required")
	}
	if q.Quantity < 0 {
		return invalid("quantity cannot be negative")
	}
	switch q.Status {
	case "":
		q.Status = InquiryNew
	case InquiryNew, InquiryInProgress, InquiryResolved, InquirySpam:
	default:
		return invalid("unknown status %q", q.Status)
	}
	return nil
}

// Media is the metadata of an uploaded file.
type Media struct {
	Base         `bson:",inline"`
	Filename     string `bson:"filename" json:"filename"`
	OriginalName string `bson:"original_name" json:"originalName"`
	MimeType     string `bson:"mime_type" json:"mimeType"`
	Size         int64  `bson:"size" json:"size"`
	URL          string `bson:"url" json:"url"`
	Alt          string `bson:"alt,omitempty" json:"alt,omitempty"`
	Folder       string `bson:"folder,omitempty" json:"folder,omitempty"`
}

func (m *Media) Validate() error {
	if m.Filename == "" {
		return invalid("filename is required")
	}
	return nil
}

// Setting is a single key/value site setting.
type Setting struct {
	Base   `bson:",inline"`
	Key    string `bson:"key" json:"key"`
	Value  string `bson:"value" json:"value"`
	Group  string `bson:"group,omitempty" json:"group,omitempty"`
	Public bool   `bson:"public" json:"public"`
}

func (s *Setting) Validate() error {
	s.Key = strings.TrimSpace(s.Key)
	if s.Key == "" {
		return invalid("key is required")
	}
	return nil
}

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Review is a customer's rating of a product. Its images and responses live in
// their own collections and are deleted with it.
type Review struct {
	Base      `bson:",inline"`
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Author    string             `bson:"author" json:"author"`
	Email     string             `bson:"email" json:"-"`
	Rating    int                `bson:"rating" json:"rating"`
	Title     string             `bson:"title,omitempty" json:"title,omitempty"`
	Body      string             `bson:"body" json:"body"`
	Status    ReviewStatus       `bson:"status" json:"status"`

	Images    []ReviewImage    `bson:"-" json:"images,omitempty"`
	Responses []ReviewResponse `bson:"-" json:"responses,omitempty"`
}

func (r *Review) Validate() error {
	r.Author = strings.TrimSpace(r.Author)
	r.Body = strings.TrimSpace(r.Body)
	if r.Author == "" {
		return invalid("author is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return invalid("rating must be between 1 and 5")
	}
	if r.Body == "" {
		return invalid("body is required")
	}
	switch r.Status {
	case "":
		r.Status = ReviewPending
	case ReviewPending, ReviewApproved, ReviewRejected:
	default:
		return invalid("unknown status %q", r.Status)
	}
	return nil
}

// ReviewImage is a picture attached to a review.
type ReviewImage struct {
	Base     `bson:",inline"`
	ReviewID primitive.ObjectID `bson:"review_id" json:"reviewId"`
	URL      string             `bson:"url" json:"url"`
	Caption  string             `bson:"caption,omitempty" json:"caption,omitempty"`
}

// ReviewResponse is a reply from staff to a review.
type ReviewResponse struct {
	Base     `bson:",inline"`
	ReviewID primitive.ObjectID `bson:"review_id" json:"reviewId"`
	Author   string             `bson:"author" json:"author"`
	Body     string             `bson:"body" json:"body"`
}

// Backup records one export of the database to disk.
type Backup struct {
	Base        `bson:",inline"`
	Name        string             `bson:"name" json:"name"`
	Path        string             `bson:"path" json:"path"`
	Collections []BackupCollection `bson:"collections" json:"collections"`
	SizeBytes   int64              `bson:"size_bytes" json:"sizeBytes"`
	Status      string             `bson:"status" json:"status"`
	Error       string             `bson:"error,omitempty" json:"error,omitempty"`
}

// BackupCollection is the per-collection part of a backup.
type BackupCollection struct {
	Name      string `bson:"name" json:"name"`
	Documents int64  `bson:"documents" json:"documents"`
	File      string `bson:"file" json:"file"`
}
