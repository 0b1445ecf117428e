package tracker

import (
	"sort"
	"time"

	"github.com/mrintern/server/internal/domain/internships"
)

var statusColors = map[Status]string{
	StatusSaved:        "#7C3AED",
	StatusApplied:      "#10B981",
	StatusInterviewing: "#F59E0B",
	StatusOffer:        "#8B5CF6",
	StatusRejected:     "#EF4444",
}

type StatusSlice struct {
	Name  Status `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type IndustryCount struct {
	Industry string `json:"industry"`
	Count    int    `json:"count"`
}

type RecentApplication struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type Analytics struct {
	TotalApplications    int                 `json:"totalApplications"`
	StatusCounts         map[Status]int      `json:"statusCounts"`
	StatusData           []StatusSlice       `json:"statusData"`
	ApplicationsOverTime []MonthCount        `json:"applicationsOverTime"`
	IndustryData         []IndustryCount     `json:"industryData"`
	RecentApplications   []RecentApplication `json:"recentApplications"`
}

// Summarize computes dashboard figures for a user's applications.
func Summarize(apps []Application) Analytics {
	sorted := make([]Application, len(apps))
	copy(sorted, apps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	out := Analytics{
		TotalApplications:    len(sorted),
		StatusCounts:         map[Status]int{},
		StatusData:           make([]StatusSlice, 0, len(Statuses)),
		ApplicationsOverTime: []MonthCount{},
		IndustryData:         []IndustryCount{},
		RecentApplications:   []RecentApplication{},
	}

	months := map[time.Time]int{}
	industries := map[string]int{}
	for _, app := range sorted {
		out.StatusCounts[app.Status]++

		created := app.CreatedAt.UTC()
		months[time.Date(created.Year(), created.Month(), 1, 0, 0, 0, 0, time.UTC)]++

		industry := string(internships.IndustryOther)
		if app.Internship != nil && app.Internship.Industry != "" {
			industry = string(app.Internship.Industry)
		}
		industries[industry]++
	}

	for _, status := range Statuses {
		out.StatusData = append(out.StatusData, StatusSlice{
			Name:  status,
			Value: out.StatusCounts[status],
			Color: statusColors[status],
		})
	}

	monthKeys := make([]time.Time, 0, len(months))
	for m := range months {
		monthKeys = append(monthKeys, m)
	}
	sort.Slice(monthKeys, func(i, j int) bool { return monthKeys[i].Before(monthKeys[j]) })
	for _, m := range monthKeys {
		out.ApplicationsOverTime = append(out.ApplicationsOverTime, MonthCount{Month: m.Format("Jan 2006"), Count: months[m]})
	}

	for industry, count := range industries {
		out.IndustryData = append(out.IndustryData, IndustryCount{Industry: industry, Count: count})
	}
	sort.Slice(out.IndustryData, func(i, j int) bool {
		if out.IndustryData[i].Count != out.IndustryData[j].Count {
			return out.IndustryData[i].Count > out.IndustryData[j].Count
		}
		return out.IndustryData[i].Industry < out.IndustryData[j].Industry
	})
	if len(out.IndustryData) > 10 {
		out.IndustryData = out.IndustryData[:10]
	}

	for i, app := range sorted {
		if i == 5 {
			break
		}
		recent := RecentApplication{ID: app.ID, Status: app.Status, CreatedAt: app.CreatedAt}
		if app.Internship != nil {
			recent.Title = app.Internship.Title
			recent.Company = app.Internship.Company
		}
		out.RecentApplications = append(out.RecentApplications, recent)
	}
	return out
}
