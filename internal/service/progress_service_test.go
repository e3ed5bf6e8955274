package service

import (
	"testing"

	"coursepulse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCourse() *model.Course {
	return &model.Course{
		ID:   "course-1",
		Name: "Go Fundamentals",
		Chapters: model.ChapterList{
			{
				ChapterName: "Basics",
				Topics: []model.Topic{
					{
						TopicName: "Syntax",
						VideoLinks: []model.VideoLink{
							{ID: "v1", Link: "https://videos.example.com/v1"},
							{ID: "v2", Link: "https://videos.example.com/v2"},
						},
					},
				},
			},
			{
				ChapterName: "Concurrency",
				Topics: []model.Topic{
					{
						TopicName: "Goroutines",
						VideoLinks: []model.VideoLink{
							{ID: "v3", Link: "https://videos.example.com/v3"},
							{ID: "v4", Link: "https://videos.example.com/v4"},
						},
					},
				},
			},
		},
	}
}

func TestSaveProgressBounds(t *testing.T) {
	svc := NewProgressService(newFakeProgressRepo(), newFakeCourseRepo(testCourse()))

	_, err := svc.SaveProgress("u1", SaveProgressRequest{CourseID: "course-1", VideoID: "v1", Progress: -1})
	assert.Error(t, err)

	_, err = svc.SaveProgress("u1", SaveProgressRequest{CourseID: "course-1", VideoID: "v1", Progress: 101})
	assert.Error(t, err)

	_, err = svc.SaveProgress("u1", SaveProgressRequest{CourseID: "missing", VideoID: "v1", Progress: 50})
	assert.Error(t, err)
}

func TestSaveProgressMarksFullWatched(t *testing.T) {
	svc := NewProgressService(newFakeProgressRepo(), newFakeCourseRepo(testCourse()))

	partial, err := svc.SaveProgress("u1", SaveProgressRequest{CourseID: "course-1", VideoID: "v1", Progress: 40})
	require.NoError(t, err)
	assert.False(t, partial.FullWatched)

	full, err := svc.SaveProgress("u1", SaveProgressRequest{CourseID: "course-1", VideoID: "v1", Progress: 100})
	require.NoError(t, err)
	assert.True(t, full.FullWatched)
}

func TestGetCourseStatsCountsUnwatchedVideos(t *testing.T) {
	progressRepo := newFakeProgressRepo()
	svc := NewProgressService(progressRepo, newFakeCourseRepo(testCourse()))

	_, err := svc.SaveProgress("u1", SaveProgressRequest{CourseID: "course-1", VideoID: "v1", Progress: 100})
	require.NoError(t, err)
	_, err = svc.SaveProgress("u1", SaveProgressRequest{CourseID: "course-1", VideoID: "v2", Progress: 50})
	require.NoError(t, err)

	stats, err := svc.GetCourseStats("u1", "course-1")
	require.NoError(t, err)

	// Two of four videos touched: (100 + 50) / 400 * 100.
	assert.Equal(t, 4, stats.VideoCount)
	assert.InDelta(t, 37.5, stats.TotalProgress, 0.001)
	assert.Equal(t, 1, stats.WatchedCount)
	assert.InDelta(t, 100, stats.Videos["v1"], 0.001)
	assert.InDelta(t, 50, stats.Videos["v2"], 0.001)
	assert.NotContains(t, stats.Videos, "v3")
}

func TestGetCourseStatsEmpty(t *testing.T) {
	svc := NewProgressService(newFakeProgressRepo(), newFakeCourseRepo(testCourse()))

	stats, err := svc.GetCourseStats("u1", "course-1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalProgress)
	assert.Zero(t, stats.WatchedCount)
	assert.Empty(t, stats.Videos)
}

func TestEnrollAndListCourses(t *testing.T) {
	svc := NewProgressService(newFakeProgressRepo(), newFakeCourseRepo(testCourse()))

	assert.Error(t, svc.Enroll("u1", "missing"))
	require.NoError(t, svc.Enroll("u1", "course-1"))

	courses, err := svc.GetEnrolledCourses("u1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "course-1", courses[0].ID)

	courses, err = svc.GetEnrolledCourses("u2")
	require.NoError(t, err)
	assert.Empty(t, courses)
}
