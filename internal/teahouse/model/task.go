package model

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusClaimed   Status = "claimed"
)

type Category string

const (
	CategoryDaily   Category = "daily"
	CategoryWeekly  Category = "weekly"
	CategorySpecial Category = "special"
)

// Categories in display order.
var Categories = []Category{CategoryDaily, CategoryWeekly, CategorySpecial}

func (c Category) Valid() bool {
	switch c {
	case CategoryDaily, CategoryWeekly, CategorySpecial:
		return true
	default:
		return false
	}
}

// Task is one quest row per (user, task id).
type Task struct {
	UserID      string   `db:"user_id" json:"user_id"`
	TaskID      string   `db:"task_id" json:"task_id"`
	Name        string   `db:"name" json:"name"`
	Description string   `db:"description" json:"description"`
	Progress    int      `db:"progress" json:"progress"`
	Target      int      `db:"target" json:"target"`
	Reward      Coins    `db:"reward" json:"reward"`
	Status      Status   `db:"status" json:"status"`
	Category    Category `db:"category" json:"category"`
}

// NewTask is the insert shape for a task row; progress starts at zero.
type NewTask struct {
	TaskID      string
	Name        string
	Description string
	Target      int
	Reward      Coins
	Category    Category
}

func (n NewTask) Task(userID string) Task {
	return Task{
		UserID:      userID,
		TaskID:      n.TaskID,
		Name:        n.Name,
		Description: n.Description,
		Target:      n.Target,
		Reward:      n.Reward,
		Status:      StatusPending,
		Category:    n.Category,
	}
}
