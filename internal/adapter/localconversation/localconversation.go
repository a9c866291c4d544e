package localconversation

// Роли реплик в локальной истории.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn — одна реплика диалога.
type Turn struct {
	Role      string
	Text      string
	ImageURLs []string
}

// LocalConversation хранит историю диалога на стороне приложения.
// Первая реплика пользователя (с картинкой) закреплена и не вытесняется: без неё модель теряет контекст изображения.
type LocalConversation struct {
	ID           string
	Instructions string
	pinned       *Turn
	turns        []Turn
	maxRecords   int
}

// New создаёт новый локальный диалог с ограничением на размер истории (без учёта закреплённой реплики).
func New(id string, instructions string, maxRecords int) *LocalConversation {
	if maxRecords < 0 {
		maxRecords = 0
	}
	return &LocalConversation{ID: id, Instructions: instructions, turns: make([]Turn, 0, maxRecords), maxRecords: maxRecords}
}

// AppendExchange добавляет пару «вопрос — ответ». Вызывается только после успешного ответа модели,
// чтобы в истории не оставалось вопросов без ответа.
func (lc *LocalConversation) AppendExchange(user Turn, assistant Turn) {
	user.Role = RoleUser
	assistant.Role = RoleAssistant
	if lc.pinned == nil {
		lc.pinned = &user
	} else {
		lc.turns = append(lc.turns, user)
	}
	lc.turns = append(lc.turns, assistant)

	if lc.maxRecords > 0 && len(lc.turns) > lc.maxRecords {
		// Оставляем последние maxRecords элементов
		lc.turns = lc.turns[len(lc.turns)-lc.maxRecords:]
	}
	// после закреплённой реплики пользователя должна идти реплика ассистента
	for len(lc.turns) > 0 && lc.turns[0].Role == RoleUser {
		lc.turns = lc.turns[1:]
	}
}

// History возвращает закреплённую реплику и последние сохранённые реплики по порядку.
func (lc *LocalConversation) History() []Turn {
	out := make([]Turn, 0, len(lc.turns)+1)
	if lc.pinned != nil {
		out = append(out, *lc.pinned)
	}
	return append(out, lc.turns...)
}

// Len — количество реплик в истории, включая закреплённую.
func (lc *LocalConversation) Len() int {
	n := len(lc.turns)
	if lc.pinned != nil {
		n++
	}
	return n
}
