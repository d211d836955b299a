// Package routes wires services and controllers into the site's HTTP handler.
package routes

import (
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"tipsvendor/app/config"
	"tipsvendor/app/controllers"
	"tipsvendor/app/live"
	"tipsvendor/app/logger"
	tvmail "tipsvendor/app/mail"
	"tipsvendor/app/middleware"
	"tipsvendor/app/payments"
	"tipsvendor/app/repositories"
	"tipsvendor/app/services"
	"tipsvendor/app/storage"
	"tipsvendor/app/views"
)

// Deps is everything the router needs from the process that serves it.
// Only Config and Repos are required. Converter and Hub stay off when nil;
// the rest fall back to what Config describes.
type Deps struct {
	Config    *config.Config
	Log       *slog.Logger
	Reporter  *logger.Reporter
	Repos     repositories.Repositories
	Sender    tvmail.Sender
	Verifier  payments.Verifier
	Converter controllers.CurrencyConverter
	Files     *storage.FileStore
	Hub       *live.Hub
}

// App is the assembled handler plus the pieces callers may need to shut
// down cleanly.
type App struct {
	Handler http.Handler
	Router  *mux.Router
	Mailer  *tvmail.Mailer
}

// New builds the services and controllers and registers every route.
// Logging, panic recovery, sessions and the access guard wrap the whole
// router so they also apply to pages served by the not-found handler.
func New(d Deps) (*App, error) {
	cfg := d.Config
	if cfg == nil {
		return nil, errors.New("routes: missing config")
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Reporter == nil {
		d.Reporter = logger.NewReporter(d.Log, "", cfg.Env, "")
	}
	if d.Sender == nil {
		sender, err := tvmail.NewSender(cfg, d.Log)
		if err != nil {
			return nil, err
		}
		d.Sender = sender
	}
	if d.Verifier == nil {
		d.Verifier = payments.NewPaystackClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL)
	}
	if d.Files == nil {
		files, err := storage.NewFileStore(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		d.Files = files
	}

	renderer, err := views.New(views.Site{
		Name:            cfg.SiteName,
		BaseURL:         cfg.BaseURL,
		AnalyticsID:     cfg.AnalyticsID,
		TagManagerID:    cfg.TagManagerID,
		AdsenseClientID: cfg.AdsenseClientID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "loading templates")
	}

	mailer := tvmail.NewMailer(d.Sender, mail.Address{Name: cfg.SiteName, Address: cfg.DefaultFromEmail},
		cfg.SiteName, cfg.BaseURL, d.Reporter)

	var feed services.Broadcaster
	if d.Hub != nil {
		feed = d.Hub
	}

	repos := d.Repos
	subs := services.NewSubscriptionService(repos.Users)
	sessions := services.NewSessionManager(cfg.SecretKey, cfg.SiteName, cfg.SessionTTL)
	tokens := services.NewTokenGenerator(cfg.SecretKey, cfg.PasswordResetTimeout)
	auth := services.NewAuthService(repos.Users, sessions, tokens, mailer, subs, cfg.PasswordResetTimeout)
	posts := services.NewPostService(repos.Posts, repos.Comments, repos.Categories, d.Log)
	comments := services.NewCommentService(repos.Comments, repos.Posts)
	categories := services.NewCategoryService(repos.Categories, repos.Posts)
	predictions := services.NewPredictionService(repos.Predictions, subs, feed)
	seo := services.NewSEOService(repos.SEOPages)
	wallet := services.NewWalletService(repos.Wallets, repos.Settings, repos.Transactions, repos.Users, subs, d.Verifier)
	users := services.NewUserService(repos.Users, subs)
	contact := services.NewContactService(mailer, cfg.ContactEmail)

	base := controllers.NewBase(renderer, d.Reporter)
	pageController := controllers.NewPageController(base, predictions, posts, contact, wallet, d.Converter)
	authController := controllers.NewAuthController(base, auth)
	postController := controllers.NewPostController(base, posts, categories, d.Files)
	commentController := controllers.NewCommentController(base, comments, posts, postController)
	categoryController := controllers.NewCategoryController(base, categories)
	predictionController := controllers.NewPredictionController(base, predictions)
	seoController := controllers.NewSEOController(base, seo)
	walletController := controllers.NewWalletController(base, wallet)
	accountController := controllers.NewAccountController(base, users, subs, wallet, predictions, posts)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(seoController.Show)

	// Assets
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(views.Static()))))
	router.PathPrefix(storage.PublicPrefix).Handler(http.StripPrefix(storage.PublicPrefix, http.FileServer(http.Dir(d.Files.Dir()))))
	router.HandleFunc("/healthz", pageController.Healthz).Methods("GET")
	if d.Hub != nil {
		router.Handle("/live/tips", d.Hub)
	}

	// Public pages
	router.HandleFunc("/", pageController.Home).Methods("GET")
	router.HandleFunc("/about", pageController.About).Methods("GET")
	router.HandleFunc("/contact", pageController.ContactForm).Methods("GET")
	router.HandleFunc("/contact", pageController.SendContact).Methods("POST")
	router.HandleFunc("/pricing", pageController.Pricing).Methods("GET")
	router.HandleFunc("/tips", predictionController.Tips).Methods("GET")
	router.HandleFunc("/vip", predictionController.VIP).Methods("GET")

	// Blog
	router.HandleFunc("/blog", postController.Index).Methods("GET")
	router.HandleFunc("/blog/category/{slug}", postController.Category).Methods("GET")
	router.HandleFunc("/blog/{slug}", postController.Show).Methods("GET")
	router.HandleFunc("/blog/{slug}/comments", commentController.Create).Methods("POST")

	// Authentication
	router.HandleFunc("/login", authController.LoginForm).Methods("GET")
	router.HandleFunc("/login", authController.Login).Methods("POST")
	router.HandleFunc("/register", authController.RegisterForm).Methods("GET")
	router.HandleFunc("/register", authController.Register).Methods("POST")
	router.HandleFunc("/logout", authController.Logout).Methods("POST")
	router.HandleFunc("/forgot-password", authController.ForgotPasswordForm).Methods("GET")
	router.HandleFunc("/forgot-password", authController.ForgotPassword).Methods("POST")
	router.HandleFunc("/reset-password", authController.ResetPasswordForm).Methods("GET")
	router.HandleFunc("/reset-password", authController.ResetPassword).Methods("POST")
	router.HandleFunc("/verify-email", authController.VerifyEmail).Methods("GET")

	// Signed-in area
	router.HandleFunc("/dashboard", accountController.Dashboard).Methods("GET")
	router.HandleFunc("/account", accountController.Account).Methods("GET")
	router.HandleFunc("/account/freeze", accountController.Freeze).Methods("POST")
	router.HandleFunc("/account/verify-email", authController.ResendVerification).Methods("POST")
	router.HandleFunc("/wallet", walletController.Show).Methods("GET")
	router.HandleFunc("/wallet/deposit", walletController.Deposit).Methods("POST")
	router.HandleFunc("/wallet/withdraw", walletController.Withdraw).Methods("POST")
	router.HandleFunc("/wallet/subscribe", walletController.Subscribe).Methods("POST")
	router.HandleFunc("/wallet/verify", walletController.Verify).Methods("GET")

	// Admin
	admin := router.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("", accountController.AdminDashboard).Methods("GET")

	adminPosts := admin.PathPrefix("/blog").Subrouter()
	adminPosts.HandleFunc("", postController.AdminIndex).Methods("GET")
	adminPosts.HandleFunc("", postController.Create).Methods("POST")
	adminPosts.HandleFunc("/new", postController.New).Methods("GET")
	adminPosts.HandleFunc("/{id:[0-9]+}", postController.Update).Methods("POST")
	adminPosts.HandleFunc("/{id:[0-9]+}/edit", postController.Edit).Methods("GET")
	adminPosts.HandleFunc("/{id:[0-9]+}/delete", postController.Delete).Methods("POST")
	adminPosts.HandleFunc("/comments/{id:[0-9]+}/delete", commentController.Delete).Methods("POST")

	admin.HandleFunc("/categories", categoryController.Index).Methods("GET")
	admin.HandleFunc("/categories", categoryController.Create).Methods("POST")
	admin.HandleFunc("/categories/{id:[0-9]+}", categoryController.Update).Methods("POST")
	admin.HandleFunc("/categories/{id:[0-9]+}/delete", categoryController.Delete).Methods("POST")

	adminPredictions := admin.PathPrefix("/predictions").Subrouter()
	adminPredictions.HandleFunc("", predictionController.AdminIndex).Methods("GET")
	adminPredictions.HandleFunc("", predictionController.Create).Methods("POST")
	adminPredictions.HandleFunc("/new", predictionController.New).Methods("GET")
	adminPredictions.HandleFunc("/{id:[0-9]+}", predictionController.Update).Methods("POST")
	adminPredictions.HandleFunc("/{id:[0-9]+}/edit", predictionController.Edit).Methods("GET")
	adminPredictions.HandleFunc("/{id:[0-9]+}/settle", predictionController.Settle).Methods("POST")
	adminPredictions.HandleFunc("/{id:[0-9]+}/delete", predictionController.Delete).Methods("POST")

	adminSEO := admin.PathPrefix("/seo").Subrouter()
	adminSEO.HandleFunc("", seoController.AdminIndex).Methods("GET")
	adminSEO.HandleFunc("", seoController.Create).Methods("POST")
	adminSEO.HandleFunc("/new", seoController.New).Methods("GET")
	adminSEO.HandleFunc("/{id:[0-9]+}", seoController.Update).Methods("POST")
	adminSEO.HandleFunc("/{id:[0-9]+}/edit", seoController.Edit).Methods("GET")
	adminSEO.HandleFunc("/{id:[0-9]+}/delete", seoController.Delete).Methods("POST")

	admin.HandleFunc("/wallet", walletController.AdminSettings).Methods("GET")
	admin.HandleFunc("/wallet", walletController.UpdateSettings).Methods("POST")

	admin.HandleFunc("/users", accountController.Users).Methods("GET")
	admin.HandleFunc("/users/{id}/role", accountController.SetRole).Methods("POST")
	admin.HandleFunc("/users/{id}/plan", accountController.GrantPlan).Methods("POST")
	admin.HandleFunc("/users/{id}/delete", accountController.DeleteUser).Methods("POST")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	apiPosts := api.PathPrefix("/posts").Subrouter()
	apiPosts.HandleFunc("", postController.Index).Methods("GET")
	apiPosts.HandleFunc("", postController.APICreate).Methods("POST")
	apiPosts.HandleFunc("/{id:[0-9]+}", postController.APIShow).Methods("GET")
	apiPosts.HandleFunc("/{id:[0-9]+}", postController.APIUpdate).Methods("PUT")
	apiPosts.HandleFunc("/{id:[0-9]+}", postController.Delete).Methods("DELETE")
	apiPosts.HandleFunc("/{id:[0-9]+}/comments", commentController.List).Methods("GET")
	apiPosts.HandleFunc("/{id:[0-9]+}/comments", commentController.APICreate).Methods("POST")
	api.HandleFunc("/comments/{id:[0-9]+}", commentController.Delete).Methods("DELETE")

	api.HandleFunc("/predictions", predictionController.Board).Methods("GET")
	api.HandleFunc("/predictions/results", predictionController.Results).Methods("GET")
	api.HandleFunc("/predictions/stats", predictionController.Stats).Methods("GET")

	api.HandleFunc("/send-email", pageController.SendContact).Methods("POST")
	api.HandleFunc("/reset-password", authController.RequestPasswordReset).Methods("POST")
	api.HandleFunc("/verify-payment", walletController.APIVerify).Methods("POST")
	api.HandleFunc("/convert", pageController.Convert).Methods("GET")

	var handler http.Handler = router
	handler = middleware.Guard(handler)
	handler = middleware.Session(auth, d.Log)(handler)
	handler = middleware.Recoverer(d.Reporter)(handler)
	handler = middleware.Logger(d.Log)(handler)

	return &App{Handler: handler, Router: router, Mailer: mailer}, nil
}
