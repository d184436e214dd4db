package controllers

import (
	"context"
	"net/http"

	"bioshop/models"
	"bioshop/store"
	"bioshop/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type postFinder interface {
	List(ctx context.Context, q store.Query) ([]models.BlogPost, int64, error)
	FindOne(ctx context.Context, filter bson.M) (*models.BlogPost, error)
}

// BlogController serves published posts to the storefront.
type BlogController struct {
	posts     postFinder
	localizer *utils.Localizer
	log       *zap.Logger
}

func NewBlogController(posts postFinder, localizer *utils.Localizer, log *zap.Logger) *BlogController {
	return &BlogController{posts: posts, localizer: localizer, log: log}
}

func (bc *BlogController) GetPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := utils.Page(q)
	filter := bson.M{"published": true}
	if tag := q.Get("tag"); tag != "" {
		filter["tags"] = tag
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	posts, total, err := bc.posts.List(ctx, store.Query{
		Filter: filter,
		Sort:   bson.D{{Key: "published_at", Value: -1}},
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(w, bc.log, err)
		return
	}
	locale := bc.localizer.Negotiate(r)
	for i := range posts {
		posts[i].Localize(locale)
	}
	w.Header().Set("Content-Language", locale)
	respondJSON(w, http.StatusOK, Page[models.BlogPost]{Items: posts, Total: total, Page: page, Limit: limit})
}

func (bc *BlogController) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	post, err := bc.posts.FindOne(ctx, bson.M{"slug": mux.Vars(r)["slug"], "published": true})
	if err != nil {
		respondError(w, bc.log, err)
		return
	}
	locale := bc.localizer.Negotiate(r)
	post.Localize(locale)
	w.Header().Set("Content-Language", locale)
	respondJSON(w, http.StatusOK, post)
}

type inquiryCreator interface {
	Create(ctx context.Context, q *models.Inquiry) error
}

// InquiryController accepts contact and quote requests from the storefront.
type InquiryController struct {
	inquiries inquiryCreator
	log       *zap.Logger
}

func NewInquiryController(inquiries inquiryCreator, log *zap.Logger) *InquiryController {
	return &InquiryController{inquiries: inquiries, log: log}
}

// SubmitInquiry always files the inquiry as new, whatever the payload says.
func (ic *InquiryController) SubmitInquiry(w http.ResponseWriter, r *http.Request) {
	var q models.Inquiry
	if err := decodeJSON(w, r, &q); err != nil {
		respondError(w, ic.log, err)
		return
	}
	q.Status = models.InquiryNew
	q.Notes = ""
	if err := q.Validate(); err != nil {
		respondError(w, ic.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := ic.inquiries.Create(ctx, &q); err != nil {
		respondError(w, ic.log, err)
		return
	}
	ic.log.Info("inquiry received", zap.String("inquiry_id", q.ID.Hex()), zap.String("subject", q.Subject))
	respondJSON(w, http.StatusCreated, q)
}

type settingStore interface {
	Public(ctx context.Context) (map[string]string, error)
	Upsert(ctx context.Context, s *models.Setting) (*models.Setting, error)
}

// SettingController exposes public settings and the admin upsert.
type SettingController struct {
	settings settingStore
	log      *zap.Logger
}

func NewSettingController(settings settingStore, log *zap.Logger) *SettingController {
	return &SettingController{settings: settings, log: log}
}

func (sc *SettingController) GetPublicSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	settings, err := sc.settings.Public(ctx)
	if err != nil {
		respondError(w, sc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// UpsertSetting writes the setting named by the {key} path variable.
func (sc *SettingController) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	var s models.Setting
	if err := decodeJSON(w, r, &s); err != nil {
		respondError(w, sc.log, err)
		return
	}
	s.Key = mux.Vars(r)["key"]
	if err := s.Validate(); err != nil {
		respondError(w, sc.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	saved, err := sc.settings.Upsert(ctx, &s)
	if err != nil {
		respondError(w, sc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}
