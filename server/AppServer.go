package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/karlseguin/ccache/v2"
	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/capability"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/config"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/crypto"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/dao"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/events"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/services/audit"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/util"
)

// Constants serve as keys for setting values on a request-scoped Context.
const (
	CallerVal = iota
	CaptureGroupsVal
	Logger
	SessionID
)

// AppServer is an http.Handler implementation that holds most service
// dependencies.
type AppServer struct {
	// Port is the TCP port that the web server listens on.
	Port string
	// Bind is the network address that the web server will use.
	Bind string
	// Addr is the combined network address and port the server listens on.
	Addr string
	// RootDAO is the interface contract with the database.
	RootDAO dao.DAO
	// Conf is the server configuration passed to the application.
	Conf config.ServerSettingsConfiguration
	// ServicePrefix is the base url. Used when matching routes.
	ServicePrefix string
	// Guard decides and audits every gated operation.
	Guard *auth.Guard
	// Auditor records decisions made outside the guard, like bearer access.
	Auditor auth.Auditor
	// Resolver computes effective permission sets.
	Resolver *auth.Resolver
	// Links drives the magic link life cycle.
	Links *capability.Manager
	// Crypto seals and opens transmission envelopes.
	Crypto *crypto.Engine
	// MasterKey is the secret for envelope sealing. Empty disables exports.
	MasterKey string
	// EventQueue is a Publisher we use to publish our access event stream.
	EventQueue events.Publisher
	// Routes holds the compiled regular expressions used when matching
	// routes. See InitRegex method.
	Routes *StaticRx
	// PermissionCache holds recently resolved effective permission sets,
	// purged least recently used when filling.
	PermissionCache *ccache.Cache
	// ShareDefaults supplies the expiry and access cap applied when a create
	// request leaves them out.
	ShareDefaults config.ShareDefaultsConfiguration
	// ImpersonationWhitelist lists the external systems allowed to call on a
	// user's behalf.
	ImpersonationWhitelist []string
}

// StaticRx holds the compiled routes.
type StaticRx struct {
	Ping                 *regexp.Regexp
	Stats                *regexp.Regexp
	Shares               *regexp.Regexp
	Share                *regexp.Regexp
	ShareAccess          *regexp.Regexp
	Grants               *regexp.Regexp
	Grant                *regexp.Regexp
	EffectivePermissions *regexp.Regexp
	Decide               *regexp.Regexp
	ExportSeal           *regexp.Regexp
	ExportOpen           *regexp.Regexp
}

// NewAppServer assembles an AppServer from configuration and its storage and
// event collaborators. The guard, resolver, link manager, and crypto engine
// are built here so every handler decides and audits through the same
// instances.
func NewAppServer(conf config.AppConfiguration, d dao.DAO, queue events.Publisher) (*AppServer, error) {
	settings := conf.ServerSettings

	engine := conf.CryptoSettings.NewEngine()
	masterKey, err := config.GetMasterKey()
	if err != nil {
		// Exports and sealed notes stay off without a key; everything else
		// still serves.
		config.RootLogger.Info("no master key configured, envelope endpoints disabled")
		masterKey = ""
	}

	recorder := audit.NewRecorder(d, queue, audit.WithLogger(config.RootLogger))
	resolver := auth.NewResolver(d, config.RootLogger)
	guard := auth.NewGuard(resolver, recorder, auth.WithLogger(config.RootLogger))

	linkOpts := []capability.Opt{capability.WithLogger(config.RootLogger)}
	if masterKey != "" {
		linkOpts = append(linkOpts, capability.WithNotesSecret(masterKey))
	}
	links := capability.NewManager(d, engine, linkOpts...)

	cacheSize := settings.PermissionCacheSize
	if cacheSize <= 0 {
		cacheSize = 1000
	}
	permissionCache := ccache.New(ccache.Configure().MaxSize(cacheSize).ItemsToPrune(50))

	app := AppServer{
		Port:                   settings.ListenPort,
		Bind:                   settings.ListenBind,
		Addr:                   settings.ListenBind + ":" + settings.ListenPort,
		RootDAO:                d,
		Conf:                   settings,
		ServicePrefix:          regexp.QuoteMeta(settings.BasePath),
		Guard:                  guard,
		Auditor:                recorder,
		Resolver:               resolver,
		Links:                  links,
		Crypto:                 engine,
		MasterKey:              masterKey,
		EventQueue:             queue,
		PermissionCache:        permissionCache,
		ShareDefaults:          conf.ShareDefaults,
		ImpersonationWhitelist: settings.ImpersonationWhitelist,
	}

	app.InitRegex()

	return &app, nil
}

// InitRegex compiles static regexes and initializes the AppServer Routes
// field.
func (h *AppServer) InitRegex() {
	route := func(path string) *regexp.Regexp {
		return regexp.MustCompile(h.ServicePrefix + path)
	}
	h.Routes = &StaticRx{
		Ping:  route("/ping$"),
		Stats: route("/stats$"),
		// - share links
		Shares:      route("/shares$"),
		Share:       route("/shares/(?P<shareId>[0-9a-fA-F-]{36})$"),
		ShareAccess: route("/shares/(?P<token>[0-9a-zA-Z]+)/access$"),
		// - privacy grants
		Grants: route("/grants$"),
		Grant:  route("/grants/(?P<grantId>[0-9a-fA-F-]{36})$"),
		// - decisions
		EffectivePermissions: route("/permissions/effective$"),
		Decide:               route("/decide$"),
		// - envelopes
		ExportSeal: route("/exports/seal$"),
		ExportOpen: route("/exports/open$"),
	}
}

// When there is a panic, all deferred functions get executed.
func logCrashInServeHTTP(logger *zap.Logger, w http.ResponseWriter) {
	if r := recover(); r != nil {
		logger.Error("tracker-access crash", zap.Any("context", r), zap.String("stack", string(debug.Stack())))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// ServeHTTP handles the routing of requests.
func (h AppServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	beganAt := time.Now()
	sessionID := newSessionID()
	w.Header().Add("sessionid", sessionID)

	caller := CallerFromRequest(r)
	caller.SessionID = sessionID
	logger := config.RootLogger.With(zap.String("session", sessionID))
	defer logCrashInServeHTTP(logger, w)

	if err := caller.ValidateHeaders(h.ImpersonationWhitelist); err != nil {
		sendErrorResponse(logger, &w, 401, err, err.Error())
		return
	}

	ctx := context.Background()
	ctx = ContextWithLogger(ctx, logger)
	ctx = ContextWithCaller(ctx, caller)
	ctx = ContextWithSession(ctx, sessionID)

	logger.Info("transaction start",
		zap.String("user", caller.UserID),
		zap.String("xsys", caller.ExternalSystem),
		zap.String("transactionType", caller.TransactionType),
		zap.String("method", r.Method),
		zap.String("uri", r.RequestURI),
	)

	var uri = r.URL.Path
	var herr *AppError

	switch r.Method {
	case "GET":
		switch {
		// - basic HTTP 200 health check
		case h.Routes.Ping.MatchString(uri):
			herr = h.ping(ctx, w, r)
		// - error counters and metrics
		case h.Routes.Stats.MatchString(uri):
			herr = h.getStats(ctx, w, r)
		// - list a family's share links
		case h.Routes.Shares.MatchString(uri):
			herr = h.listShareLinks(ctx, w, r)
		// - resolved effective permissions
		case h.Routes.EffectivePermissions.MatchString(uri):
			herr = h.getEffectivePermissions(ctx, w, r)
		default:
			herr = do404(ctx, r)
		}
	case "POST":
		switch {
		// - issue a share link
		case h.Routes.Shares.MatchString(uri):
			herr = h.createShareLink(ctx, w, r)
		// - bearer access through a share link
		case h.Routes.ShareAccess.MatchString(uri):
			ctx = parseCaptureGroups(ctx, r.URL.Path, h.Routes.ShareAccess)
			herr = h.accessShareLink(ctx, w, r)
		// - remote access decision
		case h.Routes.Decide.MatchString(uri):
			herr = h.decide(ctx, w, r)
		// - seal an export envelope
		case h.Routes.ExportSeal.MatchString(uri):
			herr = h.sealExport(ctx, w, r)
		// - open an export envelope
		case h.Routes.ExportOpen.MatchString(uri):
			herr = h.openExport(ctx, w, r)
		default:
			herr = do404(ctx, r)
		}
	case "PUT":
		switch {
		// - write a privacy grant
		case h.Routes.Grants.MatchString(uri):
			herr = h.upsertPrivacyGrant(ctx, w, r)
		default:
			herr = do404(ctx, r)
		}
	case "DELETE":
		switch {
		// - deactivate a share link
		case h.Routes.Share.MatchString(uri):
			ctx = parseCaptureGroups(ctx, r.URL.Path, h.Routes.Share)
			herr = h.deactivateShareLink(ctx, w, r)
		// - remove a privacy grant
		case h.Routes.Grant.MatchString(uri):
			ctx = parseCaptureGroups(ctx, r.URL.Path, h.Routes.Grant)
			herr = h.deletePrivacyGrant(ctx, w, r)
		default:
			herr = do404(ctx, r)
		}
	default:
		herr = do404(ctx, r)
	}

	if herr != nil {
		sendAppErrorResponse(logger, &w, herr)
	} else {
		countOKResponse(logger)
	}
	h.trackOperation(r.Method, uri, herr, beganAt)
}

func newSessionID() string {
	id, err := util.NewGUID()
	if err != nil {
		return "unknown"
	}
	return id
}

// ContextWithSession puts the sessionID on the context, used for log
// correlation.
func ContextWithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionID, sessionID)
}

// ContextWithCaller returns a new Context object with a Caller value set.
func ContextWithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, CallerVal, caller)
}

// ContextWithLogger puts the logger on the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, Logger, logger)
}

// CallerFromContext extracts a Caller from a context, if set.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(CallerVal).(Caller)
	return caller, ok
}

// SessionIDFromContext extracts the session id from the context.
func SessionIDFromContext(ctx context.Context) string {
	sessionID, ok := ctx.Value(SessionID).(string)
	if !ok {
		return "unknown"
	}
	return sessionID
}

// LoggerFromContext gets a zap logger from our context.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(Logger).(*zap.Logger)
	if !ok {
		return config.RootLogger
	}
	return logger
}

func parseCaptureGroups(ctx context.Context, path string, regex *regexp.Regexp) context.Context {
	captured := util.GetRegexCaptureGroups(path, regex)
	return context.WithValue(ctx, CaptureGroupsVal, captured)
}

// CaptureGroupsFromContext extracts the capture groups from a context, if
// set.
func CaptureGroupsFromContext(ctx context.Context) (map[string]string, bool) {
	captured, ok := ctx.Value(CaptureGroupsVal).(map[string]string)
	return captured, ok
}

func do404(ctx context.Context, r *http.Request) *AppError {
	caller, ok := CallerFromContext(ctx)
	identity := caller.UserID
	if !ok || identity == "" {
		identity = "anonymous"
	}
	msg := identity + " from address " + r.RemoteAddr + " unhandled operation " + r.Method + " " + r.URL.Path
	return NewAppError(404, nil, fmt.Sprintf("Resource not found: %s", msg))
}

// principalFromCaller converts the request caller to the guard's principal.
func principalFromCaller(caller Caller) auth.Principal {
	return auth.Principal{ID: caller.UserID, SessionID: caller.SessionID}
}

// jsonResponse writes obj with the application/json content type.
func jsonResponse(w http.ResponseWriter, code int, obj interface{}) *AppError {
	body, err := json.Marshal(obj)
	if err != nil {
		return NewAppError(500, err, "could not encode response")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
	return nil
}

// permissionCacheKey builds the cache key for a resolved principal and scope.
func permissionCacheKey(principalID, familyID, childID string) string {
	return principalID + "|" + familyID + "|" + childID
}

// cachedResolve resolves effective permissions through the LRU cache.
func (h AppServer) cachedResolve(ctx context.Context, principal auth.Principal, scope auth.Scope) (auth.EffectivePermissions, error) {
	ttl := time.Duration(h.Conf.PermissionCacheTTL) * time.Second
	if ttl <= 0 {
		return h.Resolver.ResolveEffective(ctx, principal, scope)
	}
	key := permissionCacheKey(principal.ID, scope.FamilyID, scope.ChildID)
	item, err := h.PermissionCache.Fetch(key, ttl, func() (interface{}, error) {
		ep, err := h.Resolver.ResolveEffective(ctx, principal, scope)
		if err != nil {
			return nil, err
		}
		return ep, nil
	})
	if err != nil {
		return auth.EffectivePermissions{}, err
	}
	return item.Value().(auth.EffectivePermissions), nil
}

// dropCachedPermissions invalidates every cached resolution for a principal
// after their records change.
func (h AppServer) dropCachedPermissions(principalID string) {
	h.PermissionCache.DeletePrefix(principalID + "|")
}
