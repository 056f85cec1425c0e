package practicum

import "fmt"

// StatusCatalog maps review status codes to the phrase sent to the user.
var StatusCatalog = map[string]string{
	"approved":  "Работа проверена: ревьюеру всё понравилось. Ура!",
	"reviewing": "Работа взята на проверку ревьюером.",
	"rejected":  "Работа проверена: у ревьюера есть замечания.",
}

const statusTemplate = `Changed review status for "%s". %s`

// Format renders the status-change message for a work item.
func Format(item WorkItem) (string, error) {
	name, err := item.Name()
	if err != nil {
		return "", err
	}
	code, err := item.Status()
	if err != nil {
		return "", err
	}
	phrase, ok := StatusCatalog[code]
	if !ok {
		return "", &UnknownStatusError{Code: code}
	}
	return fmt.Sprintf(statusTemplate, name, phrase), nil
}
