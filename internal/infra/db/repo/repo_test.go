package repo_test

import (
	"context"
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db/repo"
	"github.com/viniciussvasques/crm-innexar/internal/infra/genlog"
	"github.com/viniciussvasques/crm-innexar/internal/testinfra"
	dbs "github.com/viniciussvasques/crm-innexar/pkg/db"
)

var uowFactory *dbs.UOWFactory

func TestMain(m *testing.M) {
	ctx := context.Background()

	uowFactory = dbs.NewUoWFactory(testinfra.Pool)
	code := m.Run()

	cleanup(ctx)

	os.Exit(code)
}

func newOrder(sessionID string, status consts.OrderStatus) *db.Order {
	now := time.Now().Truncate(0)
	paidAt := now
	return &db.Order{
		StripeSessionID:   sessionID,
		StripeCustomerID:  "cus_test",
		CustomerName:      "Maria Souza",
		CustomerEmail:     "maria@example.com",
		Status:            status,
		TotalPrice:        497.00,
		Currency:          "BRL",
		DeliveryDays:      7,
		RevisionsIncluded: 2,
		CreatedAt:         now,
		UpdatedAt:         now,
		PaidAt:            &paidAt,
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	orders := repo.NewOrderRepo(tx)

	order := newOrder("cs_test_create_0001ABCD", consts.OrderStatusOnboardingPending)
	err = orders.CreateOrder(ctx, order)
	require.NoError(t, err)
	require.NotZero(t, order.ID)

	found, err := orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, order.StripeSessionID, found.StripeSessionID)
	require.Equal(t, consts.OrderStatusOnboardingPending, found.Status)
	require.WithinDuration(t, order.CreatedAt, found.CreatedAt, time.Microsecond)
	require.NotNil(t, found.PaidAt)
}

func TestGetOrderReturnsNilIfMissing(t *testing.T) {
	ctx := context.Background()
	orders := repo.NewOrderRepo(testinfra.Pool)

	found, err := orders.GetOrder(ctx, 999999)
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestFindOrderByIdentifierResolvesAllForms(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	orders := repo.NewOrderRepo(tx)

	order := newOrder("cs_test_lookup_77xyzw12", consts.OrderStatusOnboardingPending)
	err = orders.CreateOrder(ctx, order)
	require.NoError(t, err)

	bySession, err := orders.FindOrderByIdentifier(ctx, "cs_test_lookup_77xyzw12")
	require.NoError(t, err)
	require.NotNil(t, bySession)
	require.Equal(t, order.ID, bySession.ID)

	// short id is the uppercased tail of the session id
	byShort, err := orders.FindOrderByIdentifier(ctx, "77XYZW12")
	require.NoError(t, err)
	require.NotNil(t, byShort)
	require.Equal(t, order.ID, byShort.ID)

	byNumeric, err := orders.FindOrderByIdentifier(ctx, idToString(order.ID))
	require.NoError(t, err)
	require.NotNil(t, byNumeric)
	require.Equal(t, order.ID, byNumeric.ID)

	missing, err := orders.FindOrderByIdentifier(ctx, "cs_test_does_not_exist")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestUpsertOnboardingReplacesOnResubmission(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	orders := repo.NewOrderRepo(tx)

	order := newOrder("cs_test_onboarding_0001", consts.OrderStatusOnboardingPending)
	err = orders.CreateOrder(ctx, order)
	require.NoError(t, err)

	ob := &db.Onboarding{
		OrderID:        order.ID,
		BusinessName:   "Bella Italia",
		BusinessEmail:  "contato@bellaitalia.com.br",
		BusinessPhone:  "+55 11 98765-4321",
		Niche:          consts.NicheRestaurant,
		PrimaryCity:    "São Paulo",
		State:          "SP",
		Services:       []string{"Almoço executivo"},
		PrimaryService: "Almoço executivo",
		SelectedPages:  []string{"home", "menu"},
		TotalPages:     2,
		Tone:           consts.ToneFriendly,
		PrimaryCTA:     consts.CTAWhatsApp,
	}
	err = orders.UpsertOnboarding(ctx, ob)
	require.NoError(t, err)
	firstID := ob.ID
	require.NotZero(t, firstID)

	ob.BusinessName = "Bella Italia Trattoria"
	ob.IsComplete = true
	ob.CompletedSteps = 6
	err = orders.UpsertOnboarding(ctx, ob)
	require.NoError(t, err)
	require.Equal(t, firstID, ob.ID, "resubmission must update the same row")

	stored, err := orders.GetOnboarding(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "Bella Italia Trattoria", stored.BusinessName)
	require.True(t, stored.IsComplete)
	require.Equal(t, []string{"home", "menu"}, stored.SelectedPages)
}

func TestFindStuckOrdersFiltersByStatusAndOnboarding(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	orders := repo.NewOrderRepo(tx)

	stuck := newOrder("cs_test_stuck_00000001", consts.OrderStatusBuilding)
	completed := time.Now().Truncate(0)
	stuck.OnboardingCompletedAt = &completed
	require.NoError(t, orders.CreateOrder(ctx, stuck))
	require.NoError(t, orders.SaveOrder(ctx, stuck))

	buildingNoOnboarding := newOrder("cs_test_stuck_00000002", consts.OrderStatusBuilding)
	require.NoError(t, orders.CreateOrder(ctx, buildingNoOnboarding))

	generating := newOrder("cs_test_stuck_00000003", consts.OrderStatusGenerating)
	generating.OnboardingCompletedAt = &completed
	require.NoError(t, orders.CreateOrder(ctx, generating))
	require.NoError(t, orders.SaveOrder(ctx, generating))

	found, err := orders.FindStuckOrders(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, stuck.ID, found[0].ID)
}

func TestSaveDeliverableUpserts(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	orders := repo.NewOrderRepo(tx)
	deliverables := repo.NewDeliverableRepo(tx)

	order := newOrder("cs_test_deliv_00000001", consts.OrderStatusGenerating)
	require.NoError(t, orders.CreateOrder(ctx, order))

	d := &db.Deliverable{
		OrderID: order.ID,
		Type:    consts.DeliverableStrategyBriefing,
		Title:   "Briefing estratégico",
		Status:  consts.DeliverableStatusGenerating,
		Content: "",
	}
	require.NoError(t, deliverables.SaveDeliverable(ctx, d))
	firstID := d.ID

	d.Status = consts.DeliverableStatusReady
	d.Content = `{"positioning":"família"}`
	require.NoError(t, deliverables.SaveDeliverable(ctx, d))
	require.Equal(t, firstID, d.ID)

	stored, err := deliverables.FindDeliverable(ctx, order.ID, consts.DeliverableStrategyBriefing)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, consts.DeliverableStatusReady, stored.Status)
	require.Equal(t, `{"positioning":"família"}`, stored.Content)
}

func TestUpsertDeploymentUpdatesTheSameProviderRow(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	orders := repo.NewOrderRepo(tx)
	deployments := repo.NewDeploymentRepo(tx)

	order := newOrder("cs_test_deploy_0000001", consts.OrderStatusGenerating)
	require.NoError(t, orders.CreateOrder(ctx, order))

	d := &db.Deployment{
		OrderID:  order.ID,
		Provider: consts.ProviderGitHub,
		Status:   consts.DeploymentFailed,
		Detail:   "401 from api",
	}
	require.NoError(t, deployments.UpsertDeployment(ctx, d))
	firstAttempt := d.LastAttemptAt

	d.Status = consts.DeploymentSucceeded
	d.ExternalID = "sites/site-order-1"
	d.URL = "https://github.com/sites/site-order-1"
	d.Detail = ""
	require.NoError(t, deployments.UpsertDeployment(ctx, d))

	stored, err := deployments.GetDeployments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, consts.DeploymentSucceeded, stored[0].Status)
	require.Equal(t, "https://github.com/sites/site-order-1", stored[0].URL)
	require.False(t, stored[0].LastAttemptAt.Before(firstAttempt))
}

// The progress sink writes on its own pool connection, entries must outlive
// a rolled-back pipeline transaction.
func TestGenerationLogSurvivesRollback(t *testing.T) {
	ctx := context.Background()
	sink := genlog.NewSink(testinfra.Pool)

	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)

	orders := repo.NewOrderRepo(tx)
	order := newOrder("cs_test_rollback_00001", consts.OrderStatusGenerating)
	require.NoError(t, orders.CreateOrder(ctx, order))

	sink.Append(ctx, order.ID, "generation_started", "Iniciando geração", consts.LogInfo, nil)

	require.NoError(t, uow.Rollback())

	gone, err := repo.NewOrderRepo(testinfra.Pool).GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Nil(t, gone)

	logs, err := sink.GetLogs(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "generation_started", logs[0].Step)
	require.Equal(t, consts.LogInfo, logs[0].Status)
}

func idToString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func cleanup(ctx context.Context) {
	_, err := testinfra.Pool.Exec(ctx, "DELETE FROM site_generation_logs")
	if err != nil {
		log.Panicf("err cleaning up repo test %v", err)
	}
}
