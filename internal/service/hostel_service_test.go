package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type hostelRepoStub struct {
	rooms    map[string]*models.HostelRoom
	assigned map[string]string
}

func newHostelRepoStub() *hostelRepoStub {
	return &hostelRepoStub{rooms: map[string]*models.HostelRoom{}, assigned: map[string]string{}}
}

func (r *hostelRepoStub) ListRooms(ctx context.Context) ([]models.HostelRoom, error) {
	var out []models.HostelRoom
	for _, room := range r.rooms {
		out = append(out, *room)
	}
	return out, nil
}

func (r *hostelRepoStub) FindRoomByID(ctx context.Context, id string) (*models.HostelRoom, error) {
	room, ok := r.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *room
	return &clone, nil
}

func (r *hostelRepoStub) CreateRoom(ctx context.Context, room *models.HostelRoom) error {
	if room.ID == "" {
		room.ID = "room-gen"
	}
	r.rooms[room.ID] = room
	return nil
}

func (r *hostelRepoStub) Assign(ctx context.Context, roomID, studentID string) error {
	room := r.rooms[roomID]
	if room.Occupied >= room.Capacity {
		return sql.ErrNoRows
	}
	room.Occupied++
	r.assigned[studentID] = roomID
	return nil
}

func (r *hostelRepoStub) Vacate(ctx context.Context, roomID, studentID string) error {
	if room, ok := r.rooms[roomID]; ok && room.Occupied > 0 {
		room.Occupied--
	}
	delete(r.assigned, studentID)
	return nil
}

func (r *hostelRepoStub) OccupancyByBlock(ctx context.Context) ([]models.HostelOccupancy, error) {
	return nil, nil
}

func TestHostelAssignEnforcesCapacity(t *testing.T) {
	repo := newHostelRepoStub()
	repo.rooms["r1"] = &models.HostelRoom{ID: "r1", Capacity: 1}
	students := map[string]*models.Student{
		"s1": {ID: "s1", Status: models.StudentStatusApproved},
		"s2": {ID: "s2", Status: models.StudentStatusApproved},
	}
	svc := NewHostelService(repo, &studentReaderStub{students: students}, nil, nil)

	require.NoError(t, svc.Assign(context.Background(), "r1", "s1"))

	err := svc.Assign(context.Background(), "r1", "s2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestHostelAssignRequiresEnrolledStudent(t *testing.T) {
	repo := newHostelRepoStub()
	repo.rooms["r1"] = &models.HostelRoom{ID: "r1", Capacity: 4}
	students := map[string]*models.Student{"s1": {ID: "s1", Status: models.StudentStatusPending}}
	svc := NewHostelService(repo, &studentReaderStub{students: students}, nil, nil)

	err := svc.Assign(context.Background(), "r1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestHostelVacateReleasesBed(t *testing.T) {
	repo := newHostelRepoStub()
	room := "r1"
	repo.rooms[room] = &models.HostelRoom{ID: room, Capacity: 2, Occupied: 1}
	students := map[string]*models.Student{"s1": {ID: "s1", Status: models.StudentStatusApproved, HostelRoomID: &room}}
	svc := NewHostelService(repo, &studentReaderStub{students: students}, nil, nil)

	require.NoError(t, svc.Vacate(context.Background(), "s1"))
	assert.Equal(t, 0, repo.rooms[room].Occupied)

	studentsNoRoom := map[string]*models.Student{"s2": {ID: "s2", Status: models.StudentStatusApproved}}
	svc = NewHostelService(repo, &studentReaderStub{students: studentsNoRoom}, nil, nil)
	err := svc.Vacate(context.Background(), "s2")
	require.Error(t, err)
}
