package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/banners"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Services bundles the domain services mounted by the router.
type Services struct {
	Auth     auth.Service
	Users    users.Service
	Products product.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
	Coupons  coupons.Service
	Wishlist wishlist.Service
	Banners  banners.Service
}

// Infra holds the shared clients the middleware stack and health checks need.
type Infra struct {
	DB          db.Pinger
	Redis       db.Pinger
	Sessions    session.AccessSessionChecker
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]db.Pinger{
			"db":    infra.DB,
			"redis": infra.Redis,
		}))
	})

	if infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	authenticated := middleware.Auth(cfg.JWT, infra.Sessions, logg)
	adminOnly := middleware.RequireRole(enums.UserRoleAdmin, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(svc.Auth, logg))
			r.Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.Post("/forgotpassword", controllers.AuthForgotPassword(svc.Auth, logg))
			r.Put("/resetpassword/{token}", controllers.AuthResetPassword(svc.Auth, logg))
			r.With(authenticated).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		})

		// Public catalog.
		r.Get("/products", controllers.ListProducts(svc.Products, logg))
		r.Get("/products/{id}", controllers.GetProduct(svc.Products, logg))
		r.Get("/banners", controllers.ListBanners(svc.Banners, logg))
		r.Get("/orders/top-selling", controllers.TopSellingProducts(svc.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(middleware.Idempotency(infra.Idempotency, cfg.Checkout.IdempotencyTTL, logg))

			r.Get("/users/profile", controllers.UserProfile(svc.Users, logg))
			r.Put("/users/profile", controllers.UserUpdateProfile(svc.Users, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svc.Cart, logg))
				r.Post("/items", controllers.CartAddItems(svc.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(svc.Cart, logg))
				r.Delete("/items", controllers.CartClear(svc.Cart, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistFetch(svc.Wishlist, logg))
				r.Post("/add", controllers.WishlistAdd(svc.Wishlist, logg))
				r.Post("/remove", controllers.WishlistRemove(svc.Wishlist, logg))
			})

			r.Post("/coupons/validate", controllers.ValidateCoupon(svc.Coupons, logg))

			r.Post("/orders/checkout", controllers.Checkout(svc.Checkout, logg))
			r.Get("/orders/my", controllers.MyOrders(svc.Orders, logg))

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)

				r.Get("/users", controllers.AdminListUsers(svc.Users, logg))
				r.Get("/users/{id}", controllers.AdminGetUser(svc.Users, logg))
				r.Put("/users/toggle/{id}", controllers.AdminToggleUserStatus(svc.Users, logg))

				r.Post("/products", controllers.AdminCreateProduct(svc.Products, logg))
				r.Put("/products/{id}", controllers.AdminUpdateProduct(svc.Products, logg))
				r.Delete("/products/{id}", controllers.AdminDeleteProduct(svc.Products, logg))

				r.Get("/orders", controllers.AdminListOrders(svc.Orders, logg))
				r.Get("/orders/{id}", controllers.GetOrder(svc.Orders, logg))
				r.Put("/orders/{id}/status", controllers.AdminUpdateOrderStatus(svc.Orders, logg))
				r.Delete("/orders/{id}", controllers.AdminDeleteOrder(svc.Orders, logg))

				r.Route("/coupons", func(r chi.Router) {
					r.Get("/", controllers.AdminListCoupons(svc.Coupons, logg))
					r.Post("/", controllers.AdminCreateCoupon(svc.Coupons, logg))
					r.Get("/{id}", controllers.AdminGetCoupon(svc.Coupons, logg))
					r.Put("/{id}", controllers.AdminUpdateCoupon(svc.Coupons, logg))
					r.Delete("/{id}", controllers.AdminDeleteCoupon(svc.Coupons, logg))
				})

				r.Post("/banners", controllers.AdminCreateBanner(svc.Banners, logg))
				r.Delete("/banners/{id}", controllers.AdminDeleteBanner(svc.Banners, logg))
			})
		})
	})

	return r
}
