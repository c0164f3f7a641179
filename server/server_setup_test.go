package server_test

import (
	"regexp"

	"github.com/karlseguin/ccache/v2"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/auth"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/capability"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/config"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/crypto"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/dao"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/metadata/models"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/server"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/services/audit"
	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/services/kafka"
)

const (
	testBasePath  = "/services/tracker-access/1.0"
	testMasterKey = "server-test-master-key"
	fakeParent    = "user-parent-1"
	fakeFamily    = "11111111-2222-3333-4444-555555555555"
	fakeChild     = "66666666-7777-8888-9999-000000000000"
)

// newFakeServer assembles an AppServer around the given fake DAO with the
// same collaborator wiring production uses. The permission cache TTL is left
// at zero so resolutions always hit the fake.
func newFakeServer(fakeDAO *dao.FakeDAO) *server.AppServer {
	engine := crypto.NewEngine()
	queue := kafka.NewFakeAsyncProducer(nil)
	recorder := audit.NewRecorder(fakeDAO, queue)
	resolver := auth.NewResolver(fakeDAO, nil)
	guard := auth.NewGuard(resolver, recorder)
	links := capability.NewManager(fakeDAO, engine, capability.WithNotesSecret(testMasterKey))

	s := server.AppServer{
		RootDAO:         fakeDAO,
		Conf:            config.ServerSettingsConfiguration{BasePath: testBasePath},
		ServicePrefix:   regexp.QuoteMeta(testBasePath),
		Guard:           guard,
		Auditor:         recorder,
		Resolver:        resolver,
		Links:           links,
		Crypto:          engine,
		MasterKey:       testMasterKey,
		EventQueue:      queue,
		PermissionCache: ccache.New(ccache.Configure().MaxSize(1000).ItemsToPrune(50)),
		ShareDefaults:   config.ShareDefaultsConfiguration{TTL: 72},
	}
	s.InitRegex()
	return &s
}

// fakeDAOWithMembership cans one membership row returned for every family
// access lookup.
func fakeDAOWithMembership(role models.Role, status string) *dao.FakeDAO {
	return &dao.FakeDAO{
		FamilyAccess: models.FamilyAccess{
			FamilyID:    fakeFamily,
			PrincipalID: fakeParent,
			Role:        role,
			Status:      status,
		},
		FamilyAccessFound: true,
	}
}
