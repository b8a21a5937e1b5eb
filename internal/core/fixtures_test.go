package core_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"housingcore/internal/core"
	"housingcore/pkg/domain"
)

var fixedNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

var (
	alice  = domain.User{NRIC: "S1234567A", Name: "Alice", Age: 36, MaritalStatus: domain.Single, Password: "password", Role: domain.RoleApplicant}
	ben    = domain.User{NRIC: "S2345678B", Name: "Ben", Age: 30, MaritalStatus: domain.Married, Password: "password", Role: domain.RoleApplicant}
	carl   = domain.User{NRIC: "T3456789C", Name: "Carl", Age: 25, MaritalStatus: domain.Single, Password: "password", Role: domain.RoleApplicant}
	dana   = domain.User{NRIC: "S3456789D", Name: "Dana", Age: 41, MaritalStatus: domain.Single, Password: "password", Role: domain.RoleApplicant}
	olivia = domain.User{NRIC: "T4567890D", Name: "Olivia", Age: 28, MaritalStatus: domain.Married, Password: "password", Role: domain.RoleOfficer}
	oscar  = domain.User{NRIC: "S5678901E", Name: "Oscar", Age: 30, MaritalStatus: domain.Married, Password: "password", Role: domain.RoleOfficer}
	mona   = domain.User{NRIC: "S6789012F", Name: "Mona", Age: 45, MaritalStatus: domain.Married, Password: "password", Role: domain.RoleManager}
	mark   = domain.User{NRIC: "S7890123G", Name: "Mark", Age: 50, MaritalStatus: domain.Single, Password: "password", Role: domain.RoleManager}
)

const (
	acacia  = 1
	bayview = 2
)

func fixtureGraph() domain.Graph {
	return domain.Graph{
		Users: []domain.User{alice, ben, carl, dana, olivia, oscar, mona, mark},
		Projects: []domain.Project{
			{
				ID: acacia, Name: "Acacia Breeze", Neighbourhood: "Yishun", Visible: true,
				OpenDate: domain.NewDate(2025, time.February, 15), CloseDate: domain.NewDate(2025, time.March, 20),
				ManagerNRIC: mona.NRIC, OfficerSlots: 2, Officers: []string{olivia.NRIC},
				Flats: []domain.Flat{
					{ProjectID: acacia, Type: domain.TwoRoom, Units: 2, Price: 350000},
					{ProjectID: acacia, Type: domain.ThreeRoom, Units: 1, Price: 450000},
				},
			},
			{
				ID: bayview, Name: "Bayview", Neighbourhood: "Tampines", Visible: true,
				OpenDate: domain.NewDate(2025, time.March, 1), CloseDate: domain.NewDate(2025, time.April, 30),
				ManagerNRIC: mark.NRIC, OfficerSlots: 1,
				Flats: []domain.Flat{
					{ProjectID: bayview, Type: domain.TwoRoom, Units: 0, Price: 300000},
					{ProjectID: bayview, Type: domain.ThreeRoom, Units: 3, Price: 500000},
				},
			},
		},
	}
}

func newFixtureService(t *testing.T) *core.Service {
	t.Helper()
	n := 0
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(),
		core.WithClock(func() time.Time { return fixedNow }),
		core.WithPasswordCost(bcrypt.MinCost),
		core.WithRegistrationIDs(func() string {
			n++
			return fmt.Sprintf("reg-%d", n)
		}),
	)
	g := fixtureGraph()
	svc.Store().ImportGraph(g)
	svc.Store().Sequencer().SeedFromGraph(g)
	return svc
}

func findProject(t *testing.T, svc *core.Service, id int) domain.Project {
	t.Helper()
	for _, p := range svc.Store().ExportGraph().Projects {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("project %d not found", id)
	return domain.Project{}
}

func units(t *testing.T, svc *core.Service, projectID int, ft domain.FlatType) int {
	t.Helper()
	flat, ok := findProject(t, svc, projectID).Flat(ft)
	if !ok {
		t.Fatalf("project %d has no %s", projectID, ft)
	}
	return flat.Units
}

func expectKind(t *testing.T, err error, sentinel error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", sentinel)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %v, got %v", sentinel, err)
	}
}

func expectReason(t *testing.T, err error, reason string) {
	t.Helper()
	if got := domain.ReasonOf(err); got != reason {
		t.Fatalf("expected reason %q, got %q (%v)", reason, got, err)
	}
}
