package commentary

import (
	"fmt"
	"strings"

	"github.com/mcdev12/kiradelay/go/internal/models"
)

// Fixed lines used when no generated text is available
const (
	QuietMarket      = "Noch keine Wetten. Der Markt ist ruhig..."
	CommentaryEmpty  = "Kira lässt uns warten, und die KI ist sprachlos."
	CommentaryFailed = "Die KI rechnet noch die Wahrscheinlichkeit einer pünktlichen Ankunft aus (Error: 0%)."
	RoastEmpty       = "Glückwunsch an den Gewinner!"
	RoastFailed      = "Glückwunsch!"
)

func bettingPrompt(guesses []models.Guess) string {
	parts := make([]string, len(guesses))
	for i, g := range guesses {
		parts[i] = fmt.Sprintf("%s tippt auf %s", g.Name, g.GuessedTime)
	}

	return fmt.Sprintf(`Kontext: Eine Schülerin namens Kira Steller kommt jeden Tag zu spät. Ihre Klassenkameraden wetten darauf, wann sie heute ankommt.

Hier sind die aktuellen Wetten:
%s

Aufgabe:
Generiere einen kurzen, lustigen Kommentar (max 2 Sätze) im Stil eines Pferderennen-Kommentators oder Sportanalysten über diese Wetten.
Analysiere, ob die Leute optimistisch oder pessimistisch sind. Sei sarkastisch aber freundlich.
Antworte auf Deutsch.`, strings.Join(parts, ", "))
}

func roastPrompt(winnerName, arrivalTime string, delayMinutes int, schoolStart string) string {
	return fmt.Sprintf(`Kira Steller ist endlich da! Sie kam um %s.
Der Gewinner der Wette ist %s.
Die Verspätung betrug ca. %d Minuten (basierend auf Schulbeginn %s, nur als Referenz).

Gratuliere dem Gewinner kurz und mach einen Witz über Kiras Zeitmanagement. Antworte auf Deutsch.`,
		arrivalTime, winnerName, delayMinutes, schoolStart)
}
