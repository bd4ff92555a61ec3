package adoptions

import (
	"context"
	"testing"
	"time"

	"pet-adoption-market/internal/domain/pets"

	"github.com/stretchr/testify/require"
)

// -------------------------
// Fakes
// -------------------------

// fakePetDir implementa PetDirectory sobre un map.
type fakePetDir struct {
	byID map[string]pets.Pet
}

func newFakePetDir() *fakePetDir {
	return &fakePetDir{byID: map[string]pets.Pet{}}
}

func (d *fakePetDir) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	p, ok := d.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

func (d *fakePetDir) SetApplicants(ctx context.Context, petID string, n int) error {
	p, ok := d.byID[petID]
	if !ok {
		return pets.ErrNotFound
	}
	p.Applicants = n
	d.byID[petID] = p
	return nil
}

// fakeRepo imita la semántica de las unidades atómicas del adapter:
// duplicado active -> ErrConflict, resolve sobre terminal -> ErrBadState,
// approve con efecto triple (cancela siblings y marca la mascota).
type fakeRepo struct {
	byID map[string]Application
	dir  *fakePetDir
}

func newFakeRepo(dir *fakePetDir) *fakeRepo {
	return &fakeRepo{byID: map[string]Application{}, dir: dir}
}

func (r *fakeRepo) Create(ctx context.Context, a Application) error {
	for _, ex := range r.byID {
		if ex.PetID == a.PetID && ex.ApplicantID == a.ApplicantID && ex.Status == StatusActive {
			return ErrConflict
		}
	}
	// como los adapters: la disponibilidad se re-valida en la unidad
	if p, ok := r.dir.byID[a.PetID]; ok && p.Status != pets.StatusAvailable {
		return ErrBadState
	}
	r.byID[a.ID] = a
	if p, ok := r.dir.byID[a.PetID]; ok {
		p.Applicants++
		r.dir.byID[a.PetID] = p
	}
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (Application, error) {
	a, ok := r.byID[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return a, nil
}

func (r *fakeRepo) ListByPet(ctx context.Context, petID string) ([]Application, error) {
	out := make([]Application, 0)
	for _, a := range r.byID {
		if a.PetID == petID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListByApplicant(ctx context.Context, applicantID string) ([]Application, error) {
	out := make([]Application, 0)
	for _, a := range r.byID {
		if a.ApplicantID == applicantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) CountActiveByPet(ctx context.Context, petID string) (int, error) {
	n := 0
	for _, a := range r.byID {
		if a.PetID == petID && a.Status == StatusActive {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) Resolve(ctx context.Context, id string, to Status, now time.Time) error {
	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if a.Status != StatusActive {
		return ErrBadState
	}
	a.Status = to
	a.UpdatedAt = now
	a.ResolvedAt = &now
	r.byID[id] = a

	if p, ok := r.dir.byID[a.PetID]; ok {
		if p.Applicants > 0 {
			p.Applicants--
		}
		r.dir.byID[a.PetID] = p
	}
	return nil
}

func (r *fakeRepo) Approve(ctx context.Context, id, petID string, now time.Time) ([]string, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status != StatusActive {
		return nil, ErrBadState
	}

	a.Status = StatusApproved
	a.UpdatedAt = now
	a.ResolvedAt = &now
	r.byID[id] = a

	cancelled := make([]string, 0)
	for sibID, sib := range r.byID {
		if sib.PetID == petID && sib.Status == StatusActive && sibID != id {
			sib.Status = StatusCancelled
			sib.UpdatedAt = now
			sib.ResolvedAt = &now
			r.byID[sibID] = sib
			cancelled = append(cancelled, sibID)
		}
	}

	if p, ok := r.dir.byID[petID]; ok {
		p.Status = pets.StatusAdopted
		r.dir.byID[petID] = p
	}
	return cancelled, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string, now time.Time) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// fakeRecorder captura las transiciones registradas.
type fakeRecorder struct {
	entries []string // "appID:from->to"
}

func (f *fakeRecorder) Record(ctx context.Context, applicationID, petID, actorID, from, to string, at time.Time) error {
	f.entries = append(f.entries, applicationID+":"+from+"->"+to)
	return nil
}

func newTestService() (*Service, *fakeRepo, *fakePetDir, *fakeRecorder) {
	dir := newFakePetDir()
	repo := newFakeRepo(dir)
	rec := &fakeRecorder{}
	svc := NewService(repo, dir, rec)
	return svc, repo, dir, rec
}

func seedPet(dir *fakePetDir, id, owner string, status pets.Status) {
	dir.byID[id] = pets.Pet{ID: id, OwnerUserID: owner, Name: "Luna", Type: pets.TypeDog, Status: status}
}

var validInput = CreateInput{
	Reason:          "siempre quise un perro",
	Experience:      "tuve dos",
	LivingCondition: "casa con patio",
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_Active(t *testing.T) {
	svc, repo, dir, rec := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	a, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)
	require.Equal(t, StatusActive, a.Status)
	require.Equal(t, now, a.CreatedAt)
	require.Nil(t, a.ResolvedAt)
	require.Contains(t, repo.byID, a.ID)

	// audit: creación con from vacío
	require.Equal(t, []string{a.ID + ":->active"}, rec.entries)
}

func TestService_Create_Validation(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	cases := []CreateInput{
		{Experience: "x", LivingCondition: "y"},
		{Reason: "x", LivingCondition: "y"},
		{Reason: "x", Experience: "y"},
		{Reason: "   ", Experience: "y", LivingCondition: "z"},
	}
	for i, in := range cases {
		_, err := svc.Create(context.Background(), "pet-1", "applicant-1", in)
		require.ErrorIs(t, err, ErrInvalidInput, "case %d", i)
	}
}

func TestService_Create_PetMissing(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Create(context.Background(), "ghost", "applicant-1", validInput)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_Create_OwnerCannotSelfApply(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	_, err := svc.Create(context.Background(), "pet-1", "owner-1", validInput)
	require.ErrorIs(t, err, ErrBadState)
}

func TestService_Create_PetNotAvailable(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAdopted)

	_, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.ErrorIs(t, err, ErrBadState)
}

func TestService_Create_DuplicateActivePair(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	_, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.ErrorIs(t, err, ErrConflict)
}

func TestService_Create_ReapplyAfterCancel(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	a, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), a.ID, "applicant-1")
	require.NoError(t, err)

	// la unicidad es solo sobre active: el par puede re-aplicar
	_, err = svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)
}

func TestService_Cancel_OnlyApplicant(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	a, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)

	// ni el dueño de la mascota puede cancelar una solicitud ajena
	_, err = svc.Cancel(context.Background(), a.ID, "owner-1")
	require.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Cancel(context.Background(), a.ID, "applicant-1")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, got.Status)
	require.NotNil(t, got.ResolvedAt)
}

func TestService_Cancel_TerminalIsFinal(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	a, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), a.ID, "applicant-1")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), a.ID, "applicant-1")
	require.ErrorIs(t, err, ErrBadState)
}

func TestService_Approve_TripleEffect(t *testing.T) {
	svc, repo, dir, rec := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	a1, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)
	a2, err := svc.Create(context.Background(), "pet-1", "applicant-2", validInput)
	require.NoError(t, err)

	got, err := svc.Approve(context.Background(), a1.ID, "owner-1")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, got.Status)

	// sibling cancelado en la misma unidad
	sib, err := repo.GetByID(context.Background(), a2.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, sib.Status)

	// mascota adopted
	p, err := dir.GetByID(context.Background(), "pet-1")
	require.NoError(t, err)
	require.Equal(t, pets.StatusAdopted, p.Status)

	// contador stale a propósito (2 creates lo dejaron en 2)
	require.Equal(t, 2, p.Applicants)

	// audit: approve propio + cancel del sibling
	require.Contains(t, rec.entries, a1.ID+":active->approved")
	require.Contains(t, rec.entries, a2.ID+":active->cancelled")
}

func TestService_Approve_OnlyPetOwner(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	a, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), a.ID, "applicant-1")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestService_Approve_RetryIsSafe(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	a, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), a.ID, "owner-1")
	require.NoError(t, err)

	// segundo approve no re-aplica efectos
	_, err = svc.Approve(context.Background(), a.ID, "owner-1")
	require.ErrorIs(t, err, ErrBadState)

	got, _ := repo.GetByID(context.Background(), a.ID)
	require.Equal(t, StatusApproved, got.Status)
}

func TestService_Reject_IsIndependent(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	a1, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)
	a2, err := svc.Create(context.Background(), "pet-1", "applicant-2", validInput)
	require.NoError(t, err)

	got, err := svc.Reject(context.Background(), a1.ID, "owner-1")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, got.Status)

	// el rechazo no toca ni a los siblings ni a la mascota
	other, _ := repo.GetByID(context.Background(), a2.ID)
	require.Equal(t, StatusActive, other.Status)

	p, _ := dir.GetByID(context.Background(), "pet-1")
	require.Equal(t, pets.StatusAvailable, p.Status)
}

func TestService_Delete_RecordsTombstone(t *testing.T) {
	svc, repo, dir, rec := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	a, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), a.ID))
	_, err = repo.GetByID(context.Background(), a.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.Contains(t, rec.entries, a.ID+":active->deleted")

	require.ErrorIs(t, svc.Delete(context.Background(), a.ID), ErrNotFound)
}

func TestService_Get_Visibility(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	a, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), a.ID, "applicant-1", false)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), a.ID, "owner-1", false)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), a.ID, "stranger", false)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(context.Background(), a.ID, "stranger", true)
	require.NoError(t, err)
}

func TestService_ListByPet_OwnerOrAdmin(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	_, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)

	items, err := svc.ListByPet(context.Background(), "pet-1", "owner-1", false)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = svc.ListByPet(context.Background(), "pet-1", "applicant-1", false)
	require.ErrorIs(t, err, ErrForbidden)

	items, err = svc.ListByPet(context.Background(), "pet-1", "stranger", true)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestService_Reconcile_RepairsCounter(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	a1, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "pet-1", "applicant-2", validInput)
	require.NoError(t, err)

	// approve deja el contador stale (2) con conteo real 0
	_, err = svc.Approve(context.Background(), a1.ID, "owner-1")
	require.NoError(t, err)

	p, err := svc.Reconcile(context.Background(), "pet-1")
	require.NoError(t, err)
	require.Equal(t, 0, p.Applicants)

	stored, _ := dir.GetByID(context.Background(), "pet-1")
	require.Equal(t, 0, stored.Applicants)

	// idempotente: reconciliar de nuevo no cambia nada
	p, err = svc.Reconcile(context.Background(), "pet-1")
	require.NoError(t, err)
	require.Equal(t, 0, p.Applicants)
}

func TestService_Reconcile_NoDriftNoWrite(t *testing.T) {
	svc, _, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	_, err := svc.Create(context.Background(), "pet-1", "applicant-1", validInput)
	require.NoError(t, err)

	p, err := svc.Reconcile(context.Background(), "pet-1")
	require.NoError(t, err)
	require.Equal(t, 1, p.Applicants)
}

// Ciclo completo: dos solicitantes, un rechazo, una cancelación, una
// re-aplicación y una aprobación final.
func TestService_FullLifecycle(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	seedPet(dir, "pet-1", "owner-1", pets.StatusAvailable)

	ctx := context.Background()

	a1, err := svc.Create(ctx, "pet-1", "ana", validInput)
	require.NoError(t, err)
	a2, err := svc.Create(ctx, "pet-1", "bruno", validInput)
	require.NoError(t, err)

	n, err := svc.ActiveCountByPet(ctx, "pet-1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// owner rechaza a ana; ana re-aplica
	_, err = svc.Reject(ctx, a1.ID, "owner-1")
	require.NoError(t, err)
	a3, err := svc.Create(ctx, "pet-1", "ana", validInput)
	require.NoError(t, err)

	// bruno se baja
	_, err = svc.Cancel(ctx, a2.ID, "bruno")
	require.NoError(t, err)

	// owner aprueba la re-aplicación de ana
	got, err := svc.Approve(ctx, a3.ID, "owner-1")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, got.Status)

	p, _ := dir.GetByID(ctx, "pet-1")
	require.Equal(t, pets.StatusAdopted, p.Status)

	// nadie más puede aplicar
	_, err = svc.Create(ctx, "pet-1", "carla", validInput)
	require.ErrorIs(t, err, ErrBadState)

	// estado final de las cuatro filas
	for id, want := range map[string]Status{
		a1.ID: StatusRejected,
		a2.ID: StatusCancelled,
		a3.ID: StatusApproved,
	} {
		a, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want, a.Status)
	}
}
