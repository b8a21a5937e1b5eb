package csvfile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"housingcore/pkg/domain"
)

func graphFixture() domain.Graph {
	open := domain.NewDate(2025, time.February, 15)
	closeDate := domain.NewDate(2025, time.March, 20)
	return domain.Graph{
		Users: []domain.User{
			{Name: "John", NRIC: "S1234567A", Age: 35, MaritalStatus: domain.Single, Password: "password", Role: domain.RoleApplicant},
			{Name: "Sarah", NRIC: "T7654321B", Age: 40, MaritalStatus: domain.Married, Password: "$2a$04$abc", Role: domain.RoleApplicant},
			{Name: "Daniel", NRIC: "T2109876H", Age: 36, MaritalStatus: domain.Single, Password: "password", Role: domain.RoleOfficer},
			{Name: "Michael", NRIC: "T8765432F", Age: 36, MaritalStatus: domain.Single, Password: "password", Role: domain.RoleManager},
		},
		Projects: []domain.Project{{
			ID: 1, Name: "Acacia Breeze", Neighbourhood: "Yishun", Visible: true,
			OpenDate: open, CloseDate: closeDate, ManagerNRIC: "T8765432F", OfficerSlots: 3,
			Officers: []string{"T2109876H"},
			Flats: []domain.Flat{
				{ProjectID: 1, Type: domain.TwoRoom, Units: 2, Price: 350000},
				{ProjectID: 1, Type: domain.ThreeRoom, Units: 3, Price: 450000},
			},
		}},
		Applications: []domain.Application{
			{ID: 1, ProjectID: 1, ApplicantNRIC: "S1234567A", FlatType: domain.TwoRoom, Status: domain.ApplicationBooked, SubmittedOn: open},
			{ID: 2, ProjectID: 1, ApplicantNRIC: "T7654321B", FlatType: domain.ThreeRoom, Status: domain.ApplicationWithdrawalRequested, SubmittedOn: open},
		},
		Enquiries: []domain.Enquiry{
			{ID: 1, Title: "Lift", Content: "Is there a lift, \"really\"?", Reply: "Yes; all blocks", CreatorNRIC: "S1234567A",
				ProjectID: 1, ReplierNRIC: "T2109876H", Status: domain.EnquiryReplied, CreatedOn: open, UpdatedOn: closeDate},
		},
		Registrations: []domain.Registration{
			{ID: "9f1c", ProjectID: 1, OfficerNRIC: "T2109876H", Status: domain.RegistrationApproved, SubmittedOn: open},
		},
		Bookings: []domain.Booking{
			{ID: 1, FlatType: domain.TwoRoom, ProjectID: 1, ApplicantNRIC: "S1234567A", OfficerNRIC: "T2109876H", BookedOn: closeDate},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New(PathsIn(t.TempDir()))
	want := graphFixture()

	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	seq := domain.NewSequencer()
	got, err := store.Load(ctx, seq)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
	}
	if next := seq.Next(domain.SeqApplication); next != 3 {
		t.Fatalf("expected application sequence at 3, got %d", next)
	}
}

func TestSaveWritesHeaderAndLists(t *testing.T) {
	ctx := context.Background()
	paths := PathsIn(t.TempDir())
	if err := New(paths).Save(ctx, graphFixture()); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(paths.Projects)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "ID,Name,Neighbourhood,Visible,FlatTypes,Units,Prices,OpenDate,CloseDate,Manager,OfficerSlots,Officers" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "1,Acacia Breeze,Yishun,true,2-Room;3-Room,2;3,350000;450000,15/02/2025,20/03/2025,T8765432F,3,T2109876H" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestLoadMissingFilesIsEmpty(t *testing.T) {
	g, err := New(PathsIn(t.TempDir())).Load(context.Background(), domain.NewSequencer())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(g.Users) != 0 || len(g.Projects) != 0 {
		t.Fatalf("expected empty graph, got %+v", g)
	}
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	paths := PathsIn(dir)
	users := strings.Join([]string{
		"Name,NRIC,Age,Marital Status,Password,Role",
		"John,S1234567A,35,Single,password,Applicant",
		"Bad Age,S2345678B,abc,Single,password,Applicant",
		"Bad Status,S3456789C,30,Divorced,password,Applicant",
		"Daniel,T2109876H,36,single,password,HDB Officer",
		"Too,Many,1,Single,password,Applicant,extra",
	}, "\n")
	if err := os.WriteFile(paths.Users, []byte(users), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	g, err := New(paths, WithLogger(logger)).Load(context.Background(), domain.NewSequencer())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(g.Users) != 2 {
		t.Fatalf("expected 2 valid users, got %+v", g.Users)
	}
	if g.Users[1].Role != domain.RoleOfficer || g.Users[1].MaritalStatus != domain.Single {
		t.Fatalf("officer row not normalised: %+v", g.Users[1])
	}
	if got := strings.Count(buf.String(), "skipping row"); got != 3 {
		t.Fatalf("expected 3 skipped rows, got %d: %s", got, buf.String())
	}
}

func TestLoadSkipsUnparseableRecords(t *testing.T) {
	paths := PathsIn(t.TempDir())
	users := strings.Join([]string{
		"Name,NRIC,Age,Marital Status,Password,Role",
		"John,S1234567A,35,Single,password,Applicant",
		`Bad "quote,S2345678B,30,Single,password,Applicant`,
		"Sarah,T7654321B,40,Married,password,Applicant",
	}, "\n")
	if err := os.WriteFile(paths.Users, []byte(users), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	g, err := New(paths, WithLogger(logger)).Load(context.Background(), domain.NewSequencer())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(g.Users) != 2 || g.Users[0].NRIC != "S1234567A" || g.Users[1].NRIC != "T7654321B" {
		t.Fatalf("expected the rows around the bad record, got %+v", g.Users)
	}
	if !strings.Contains(buf.String(), "skipping row") || !strings.Contains(buf.String(), "line=3") {
		t.Fatalf("expected bad record logged with its line: %s", buf.String())
	}
}

func TestLoadKeepsOtherCollectionsWhenOneIsUnreadable(t *testing.T) {
	paths := PathsIn(t.TempDir())
	if err := New(paths).Save(context.Background(), graphFixture()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.Remove(paths.Projects); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(paths.Projects, 0o750); err != nil {
		t.Fatal(err)
	}

	g, err := New(paths).Load(context.Background(), domain.NewSequencer())
	if !errors.Is(err, domain.ErrPersistence) || !strings.Contains(err.Error(), "projects") {
		t.Fatalf("expected persistence failure naming projects, got %v", err)
	}
	if len(g.Users) != len(graphFixture().Users) {
		t.Fatalf("users discarded alongside the failed collection: %+v", g.Users)
	}
}

func TestLoadWithoutHeaderRow(t *testing.T) {
	paths := PathsIn(t.TempDir())
	if err := os.WriteFile(paths.Users, []byte("John,S1234567A,35,Single,password,Applicant\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	g, err := New(paths).Load(context.Background(), domain.NewSequencer())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(g.Users) != 1 {
		t.Fatalf("expected first row kept as data, got %+v", g.Users)
	}
}

func TestSaveContinuesPastFailedCollection(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := PathsIn(dir)
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	paths.Projects = filepath.Join(blocker, "projects.csv")

	err := New(paths).Save(ctx, graphFixture())
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "save projects") {
		t.Fatalf("failure should name the collection: %v", err)
	}
	for _, p := range []string{paths.Users, paths.Applications, paths.Bookings} {
		if _, statErr := os.Stat(p); statErr != nil {
			t.Fatalf("expected %s written despite earlier failure: %v", p, statErr)
		}
	}
}

func TestSaveFailureKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "users.csv")
	if err := os.WriteFile(target, []byte("old"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := writeAtomic(target, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected write failure")
	}
	data, _ := os.ReadFile(target)
	if string(data) != "old" {
		t.Fatalf("target overwritten: %q", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestFilesUsesLogicalNames(t *testing.T) {
	paths := PathsIn("data")
	files := New(paths).Files()
	if files[UsersFile] != paths.Users || files[RegistrationsFile] != paths.Registrations || len(files) != 6 {
		t.Fatalf("unexpected files map %v", files)
	}
}
