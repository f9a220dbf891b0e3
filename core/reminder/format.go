package reminder

import (
	"fmt"
	"strings"
)

const (
	// maxListedTasks caps how many tasks a chat reminder spells out.
	maxListedTasks = 5

	DueSoonTemplate = "due_soon"
	noDueDateText   = "Sin fecha límite"
)

// Message carries both renditions of a reminder; each channel picks the part it understands.
type Message struct {
	// Text is the chat rendition.
	Text string
	// Subject, TemplateName and TemplateData make the email rendition.
	Subject      string
	TemplateName string
	TemplateData DueSoonData
}

// DueSoonData feeds the due_soon email template.
type DueSoonData struct {
	Name       string
	Title      string
	CourseName string
	DueDate    string
}

// NewMessage renders the reminder for tasks. tasks must not be empty.
func NewMessage(identity string, tasks []PendingTask) Message {
	title := tasksLabel(len(tasks))
	first := tasks[0]
	return Message{
		Text:         FormatChat(tasks),
		Subject:      fmt.Sprintf("⏰ Recordatorio: %s vence pronto", title),
		TemplateName: DueSoonTemplate,
		TemplateData: DueSoonData{
			Name:       identity,
			Title:      title,
			CourseName: first.CourseName,
			DueDate:    dueDateText(first),
		},
	}
}

// FormatChat lists up to maxListedTasks tasks with their course and due date, then a tip.
func FormatChat(tasks []PendingTask) string {
	var b strings.Builder
	b.WriteString("🎓 *Recordatorio de Tareas - Semillero Digital*\n\n")
	fmt.Fprintf(&b, "Tienes *%d* tarea(s) pendiente(s):\n\n", len(tasks))

	for i, t := range tasks {
		if i == maxListedTasks {
			break
		}
		fmt.Fprintf(&b, "%d. *%s*\n", i+1, t.AssignmentTitle)
		fmt.Fprintf(&b, "   📚 %s\n", t.CourseName)
		fmt.Fprintf(&b, "   📅 Vence: %s\n\n", dueDateText(t))
	}
	if extra := len(tasks) - maxListedTasks; extra > 0 {
		fmt.Fprintf(&b, "... y %d tarea(s) más\n\n", extra)
	}

	b.WriteString("💡 *Tip:* Accede a Google Classroom o nuestro dashboard para completar tus tareas.\n\n")
	b.WriteString("¡No dejes para mañana lo que puedes hacer hoy! 💪")
	return b.String()
}

func tasksLabel(n int) string {
	return fmt.Sprintf("%d tarea(s) pendiente(s)", n)
}

func dueDateText(t PendingTask) string {
	if t.DueDate == nil || t.DueDate.IsZero() {
		return noDueDateText
	}
	return t.DueDate.String()
}
