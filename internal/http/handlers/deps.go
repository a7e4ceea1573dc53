package handlers

import (
	"keepsake/internal/config"
	"keepsake/internal/repos"
	"keepsake/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth            *services.AuthService
	Users           *repos.UserRepo
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	CurrencyHandler *CurrencyHandler
	OrderHandler    *OrderHandler
	AuthHandler     *AuthHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, rates services.RatesProvider) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	curRepo := repos.NewCurrencyRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	cartSvc := services.NewCartService(cartRepo, catalogSvc)
	currencySvc := services.NewCurrencyService(curRepo, rates, cfg.RatesTTL)
	orderSvc := services.NewOrderService(cartSvc, currencySvc, orderRepo, auth)

	return &Deps{
		Auth:            auth,
		Users:           auth.Users,
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc, Currency: currencySvc},
		CartHandler:     &CartHandler{Cart: cartSvc, Currency: currencySvc},
		CurrencyHandler: &CurrencyHandler{Currency: currencySvc, Rates: rates},
		OrderHandler:    &OrderHandler{Order: orderSvc, Repo: orderRepo, Auth: auth},
		AuthHandler:     &AuthHandler{Auth: auth},
		AdminHandler:    &AdminHandler{Orders: orderRepo, Catalog: catalogSvc},
	}
}
