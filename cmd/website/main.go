package main

import (
	"context"
	"embed"
	"encoding/gob"
	"log/slog"
	"net/http"
	"strings"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/mux"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/retrier"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/photogallery/cmd/website/internal/admin"
	"github.com/adampresley/photogallery/cmd/website/internal/configuration"
	"github.com/adampresley/photogallery/cmd/website/internal/home"
	"github.com/adampresley/photogallery/pkg/albumstore"
	"github.com/adampresley/photogallery/pkg/metrics"
	"github.com/adampresley/photogallery/pkg/models"
	"github.com/adampresley/photogallery/pkg/services"
	gorillasessions "github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	Version string = "development"
	appName string = "photogallery"

	//go:embed app
	appFS embed.FS

	config configuration.Config

	/* Services */
	authService    services.AdminAuthServicer
	flashService   sessions.Session[*models.FlashMessage]
	galleryService services.GalleryServicer
	renderer       rendering.TemplateRenderer
	sessionService sessions.Session[*models.AdminSession]
	store          albumstore.AlbumStore

	/* Controllers */
	adminController admin.AdminController
	homeController  home.HomeHandlers
)

func main() {
	var (
		err error
	)

	config = configuration.LoadConfig()
	setupLogger(&config, Version)

	slog.Info("configuration loaded",
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("loglevel", config.LogLevel),
		slog.String("host", config.Host),
		slog.String("storage", config.StorageBackend),
		slog.String("uploadFolder", config.UploadFolder),
	)

	if config.AdminPasswordHash == "" && config.AdminPassword == "admin123" {
		slog.Warn("the default admin password is in use. set ADMIN_PASSWORD or ADMIN_PASSWORD_HASH")
	}

	slog.Debug("setting up...")

	shutdownCtx, cancel := context.WithCancel(context.Background())

	/*
	 * Setup services
	 */
	gob.Register(&models.AdminSession{})
	gob.Register(&models.FlashMessage{})

	cookieStore := sessions.NewCookieStore(
		config.CookieSecret,
		sessions.WithHttpOnly(true),
		sessions.WithSameSite(http.SameSiteLaxMode),
		withRootPath,
	)
	sessionService = sessions.NewSessionWrapper[*models.AdminSession](cookieStore, "photogalleryadmin", "admin")
	flashService = sessions.NewSessionWrapper[*models.FlashMessage](cookieStore, "photogalleryflash", "flash")

	if store, err = setupStore(shutdownCtx); err != nil {
		panic(err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	galleryMetrics := metrics.NewPrometheusMetrics(registry)

	renderer, err = rendering.NewGoTemplateRenderer(rendering.GoTemplateRendererConfig{
		TemplateDir:       "app",
		TemplateExtension: ".html",
		TemplateFS:        appFS,
		PagesDir:          "pages",
	})

	if err != nil {
		panic(err)
	}

	galleryService = services.NewGalleryService(services.GalleryServiceConfig{
		AllowedExtensions: services.ParseExtensions(config.AllowedExtensions),
		MaxUploadWorkers:  config.MaxUploadWorkers,
		Metrics:           galleryMetrics,
		Store:             store,
	})

	authService = services.NewAdminAuthService(services.AdminAuthServiceConfig{
		AttemptsPerMinute: config.LoginAttemptsPerMinute,
		Metrics:           galleryMetrics,
		Password:          config.AdminPassword,
		PasswordHash:      config.AdminPasswordHash,
	})

	/*
	 * Setup controllers
	 */
	homeController = home.NewHomeController(home.HomeControllerConfig{
		GalleryService: galleryService,
		Renderer:       renderer,
		SessionService: sessionService,
		SiteName:       config.SiteName,
	})

	adminController = admin.NewAdminController(admin.AdminControllerConfig{
		AuthService:    authService,
		FlashService:   flashService,
		GalleryService: galleryService,
		MaxUploadBytes: int64(config.MaxUploadMB) << 20,
		Renderer:       renderer,
		SessionService: sessionService,
		SiteName:       config.SiteName,
	})

	/*
	 * Setup router and http server
	 */
	slog.Debug("setting up routes...")

	requestLogger := newRequestLogger()
	adminMiddleware := newAdminMiddleware(sessionService)
	metricsHandler := metrics.Handler(registry)

	routes := []mux.Route{
		{Path: "GET /heartbeat", HandlerFunc: heartbeat},
		{Path: "GET /metrics", HandlerFunc: metricsHandler.ServeHTTP},
		{Path: "GET /", HandlerFunc: homeController.HomePage},
		{Path: "GET /album/{name}", HandlerFunc: homeController.AlbumPage},
		{Path: "GET /uploads/{album}/{filename}", HandlerFunc: homeController.UploadedFile},
		{Path: "GET /admin", HandlerFunc: adminController.LoginPage},
		{Path: "POST /admin", HandlerFunc: adminController.LoginAction},
		{Path: "GET /admin/logout", HandlerFunc: adminController.LogoutAction},
		{Path: "GET /admin/dashboard", HandlerFunc: adminController.DashboardPage, Middlewares: []mux.MiddlewareFunc{adminMiddleware}},
		{Path: "POST /admin/create_album", HandlerFunc: adminController.CreateAlbumAction},
		{Path: "POST /admin/upload", HandlerFunc: adminController.UploadAction},
		{Path: "POST /admin/upload_capa", HandlerFunc: adminController.UploadCoverAction},
		{Path: "POST /admin/delete_photo", HandlerFunc: adminController.DeletePhotoAction},
		{Path: "POST /admin/delete_album", HandlerFunc: adminController.DeleteAlbumAction},
		{Path: "POST /admin/rename_album", HandlerFunc: adminController.RenameAlbumAction},
	}

	for i := range routes {
		routes[i].Middlewares = append(routes[i].Middlewares, requestLogger)
	}

	routerConfig := mux.RouterConfig{
		Address:              config.Host,
		Debug:                Version == "development",
		ServeStaticContent:   true,
		StaticContentRootDir: "app",
		StaticContentPrefix:  "/static/",
		StaticFS:             appFS,
		HttpWriteTimeout:     60,
	}

	m := mux.SetupRouter(routerConfig, routes)
	httpServer, quit := mux.SetupServer(routerConfig, m)

	/*
	 * Wait for graceful shutdown
	 */
	slog.Info("server started")

	<-quit

	cancel()
	mux.Shutdown(httpServer)
	slog.Info("server stopped")
}

func heartbeat(w http.ResponseWriter, r *http.Request) {
	httphelpers.TextOK(w, "OK")
}

/*
withRootPath scopes session cookies to the whole site so logging out from
/admin/logout expires the same cookie the login set.
*/
func withRootPath(options *gorillasessions.Options) {
	options.Path = "/"
}

func setupStore(ctx context.Context) (albumstore.AlbumStore, error) {
	var (
		err      error
		s3Client albumstore.S3API
	)

	if !strings.EqualFold(config.StorageBackend, "s3") {
		return albumstore.NewFilesystemStore(config.UploadFolder)
	}

	s3Client, err = albumstore.NewS3Client(ctx, albumstore.S3ClientConfig{
		Endpoint:        config.AwsEndpointUrl,
		Region:          config.AwsRegion,
		AccessKeyID:     config.AwsAccessKeyId,
		SecretAccessKey: config.AwsSecretAccessKey,
	})

	if err != nil {
		return nil, err
	}

	s3Store := albumstore.NewS3Store(albumstore.S3StoreConfig{
		Bucket: config.AwsBucket,
		Client: s3Client,
		Prefix: config.S3Prefix,
		Region: config.AwsRegion,
	})

	err = retrier.Retry(func() error {
		if err := s3Store.EnsureBucket(ctx); err != nil {
			slog.Error("failed to reach the S3 bucket. trying again", "error", err, "bucket", config.AwsBucket)
			return err
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return s3Store, nil
}
