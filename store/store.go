package store

import "bioshop/models"

// Store groups every repository over one database.
type Store struct {
	DB        *DB
	Carts     *CartStore
	Orders    *OrderStore
	Counters  *CounterStore
	Products  *ProductStore
	Users     *UserStore
	Roles     *RoleStore
	Settings  *SettingStore
	Reviews   *ReviewStore
	Analytics *AnalyticsStore

	Blog      *Collection[models.BlogPost, *models.BlogPost]
	Inquiries *Collection[models.Inquiry, *models.Inquiry]
	Media     *Collection[models.Media, *models.Media]
	Backups   *Collection[models.Backup, *models.Backup]
}

func NewStore(db *DB) *Store {
	return &Store{
		DB:        db,
		Carts:     NewCartStore(db),
		Orders:    NewOrderStore(db),
		Counters:  NewCounterStore(db),
		Products:  NewProductStore(db),
		Users:     NewUserStore(db),
		Roles:     NewRoleStore(db),
		Settings:  NewSettingStore(db),
		Reviews:   NewReviewStore(db),
		Analytics: NewAnalyticsStore(db),
		Blog:      NewCollection[models.BlogPost](db, BlogCollection),
		Inquiries: NewCollection[models.Inquiry](db, InquiriesCollection),
		Media:     NewCollection[models.Media](db, MediaCollection),
		Backups:   NewCollection[models.Backup](db, BackupsCollection),
	}
}
