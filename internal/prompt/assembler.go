package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

// Assembler builds the (system prompt, user message) pair for a question,
// branching on intent and folding in the personalization policy.
type Assembler struct {
	persona domain.Personalization
}

func NewAssembler(persona domain.Personalization) *Assembler {
	return &Assembler{persona: persona}
}

// Assemble produces the prompt pair. corpus is the full record set (for
// aggregates); retrieved is the top-K sample and is only consulted in
// analytical mode.
func (a *Assembler) Assemble(intent domain.QueryIntent, question string, corpus, retrieved []domain.LogRecord) (systemPrompt, userMessage string) {
	switch intent {
	case domain.IntentNameLookup:
		systemPrompt = a.nameLookupPrompt()
	case domain.IntentPersonalProfile:
		systemPrompt = a.personalProfilePrompt(corpus)
	case domain.IntentStatistical:
		systemPrompt = a.statisticalPrompt(corpus)
	default:
		systemPrompt = a.analyticalPrompt(corpus, retrieved)
	}
	return systemPrompt, question
}

func (a *Assembler) nameLookupPrompt() string {
	var b strings.Builder
	b.WriteString("Ты — ассистент по анализу логов ошибок.\n")
	if p, ok := a.persona.Profile(); ok && p.Name != "" {
		fmt.Fprintf(&b, "Пользователя зовут %s. Ответь только именем пользователя, без какой-либо другой информации.\n", p.Name)
	} else {
		b.WriteString("Имя пользователя не задано. Сообщи, что имя не указано в профиле, и больше ничего.\n")
	}
	b.WriteString(formatSingleLine)
	a.appendPolicy(&b)
	return b.String()
}

func (a *Assembler) personalProfilePrompt(corpus []domain.LogRecord) string {
	var b strings.Builder
	b.WriteString("Ты — ассистент по анализу логов ошибок. Ответь на вопрос пользователя о нём самом, используя только данные профиля ниже.\n\n")
	b.WriteString(a.persona.UserContext())
	b.WriteString("\n")
	if a.persona.IsWorkingHours() {
		b.WriteString("Сейчас рабочее время пользователя.\n")
	} else {
		b.WriteString("Сейчас нерабочее время пользователя.\n")
	}
	if p, ok := a.persona.Profile(); ok {
		fmt.Fprintf(&b, "Предпочтения: стиль ответа %s, технический уровень %s, рекомендации: %s, эмодзи: %s.\n",
			orDefault(p.Preferences.AnswerStyle, "обычный"),
			orDefault(p.Preferences.TechLevel, "средний"),
			yesNo(p.Preferences.Recommendations),
			yesNo(p.Preferences.Emoji),
		)
	}
	relevant := 0
	for _, rec := range corpus {
		if a.persona.IsRelevantToUser(rec.Service, rec.ErrorType) {
			relevant++
		}
	}
	fmt.Fprintf(&b, "Из %d записей в логе %d относятся к зоне ответственности пользователя.\n", len(corpus), relevant)
	b.WriteString(formatStructured)
	a.appendPolicy(&b)
	return b.String()
}

func (a *Assembler) statisticalPrompt(corpus []domain.LogRecord) string {
	var b strings.Builder
	b.WriteString("Ты — ассистент по анализу логов ошибок. Ответь на статистический вопрос.\n\n")
	writeStats(&b, ComputeStats(corpus))
	b.WriteString("\nЛюбые числа в ответе бери ТОЛЬКО из агрегатов выше. Не придумывай и не пересчитывай значения по отдельным записям.\n")
	b.WriteString(formatSingleLine)
	a.appendPolicy(&b)
	return b.String()
}

func (a *Assembler) analyticalPrompt(corpus, retrieved []domain.LogRecord) string {
	var b strings.Builder
	b.WriteString("Ты — ассистент по анализу логов ошибок. Проанализируй вопрос пользователя по данным ниже.\n\n")
	writeStats(&b, ComputeStats(corpus))
	b.WriteString("\nНаиболее релевантные записи (выборка, НЕ полный лог — не используй её для подсчётов):\n")
	for i, rec := range retrieved {
		b.WriteString(renderRecord(i+1, rec))
	}
	b.WriteString(formatStructured)
	a.appendPolicy(&b)
	return b.String()
}

// appendPolicy adds the decision-policy block that personalizes every
// mode when a profile is loaded.
func (a *Assembler) appendPolicy(b *strings.Builder) {
	p, ok := a.persona.Profile()
	if !ok {
		return
	}
	b.WriteString("\nПолитика персонализации:\n")
	if len(p.Responsibility.Services) > 0 {
		fmt.Fprintf(b, "- Записи сервисов %s — высший приоритет.\n", strings.Join(p.Responsibility.Services, ", "))
	}
	if len(p.Responsibility.CriticalErrors) > 0 {
		fmt.Fprintf(b, "- Ошибки типов %s критичны для пользователя — выделяй их отдельно.\n", strings.Join(p.Responsibility.CriticalErrors, ", "))
	}
	b.WriteString("- Остальные сервисы и ошибки упоминай кратко.\n")
	if p.Preferences.Emoji {
		b.WriteString("- Эмодзи уместны.\n")
	} else {
		b.WriteString("- Не используй эмодзи.\n")
	}
	if p.Preferences.TechLevel != "" {
		fmt.Fprintf(b, "- Глубина объяснений: уровень %s.\n", p.Preferences.TechLevel)
	}
	b.WriteString("- Обращайся к пользователю напрямую, на «ты/вы» по контексту.\n")
}

func writeStats(b *strings.Builder, stats Stats) {
	fmt.Fprintf(b, "Агрегированная статистика (всего записей: %d):\n", stats.Total)
	b.WriteString("Ошибки по типам:\n")
	for _, c := range stats.ByErrorType {
		fmt.Fprintf(b, "- %s: %d\n", c.Name, c.Count)
	}
	b.WriteString("Ошибки по сервисам:\n")
	for _, c := range stats.ByService {
		fmt.Fprintf(b, "- %s: %d\n", c.Name, c.Count)
	}
}

func renderRecord(index int, rec domain.LogRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s | %s | %s", index, rec.Service, rec.ErrorType, rec.Message)
	if !rec.Timestamp.IsZero() {
		fmt.Fprintf(&b, " | %s", rec.Timestamp.UTC().Format("2006-01-02 15:04:05"))
	}
	if rec.UserID != "" {
		fmt.Fprintf(&b, " | user=%s", rec.UserID)
	}
	if len(rec.Metadata) > 0 {
		keys := metadataKeys(rec.Metadata)
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, rec.Metadata[k])
		}
	}
	b.WriteString("\n")
	return b.String()
}

func metadataKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const (
	formatSingleLine = "Формат ответа: одна короткая строка с фактом, без пояснений.\n"
	formatStructured = "Формат ответа из четырёх частей: 1) вывод, 2) факты, 3) что это значит для пользователя, 4) рекомендуемые действия.\n"
)

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}
