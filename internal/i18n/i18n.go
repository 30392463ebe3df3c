package i18n

// Language represents a supported language.
type Language string

const (
	// Portuguese is Brazilian Portuguese, the language the gym members use.
	Portuguese Language = "pt"
	// English is the English language.
	English Language = "en"
)

// DefaultLanguage is the fallback language.
const DefaultLanguage = Portuguese

//nolint:gochecknoglobals // static lookup table.
var translations = map[Language]map[string]string{
	Portuguese: {
		"app.title":                "TatuGym",
		"app.tagline":              "Seu personal trainer no bolso.",
		"nav.dashboard":            "Início",
		"nav.history":              "Histórico",
		"nav.chat":                 "Tatu IA",
		"nav.settings":             "Ajustes",
		"login.username":           "Usuário",
		"login.password":           "Senha",
		"login.remember":           "Lembrar de mim",
		"login.submit":             "Entrar",
		"login.invalid":            "Usuário ou senha inválidos.",
		"onboarding.title":         "Complete seu perfil",
		"onboarding.name":          "Nome",
		"onboarding.age":           "Idade",
		"onboarding.weight":        "Peso (kg)",
		"onboarding.height":        "Altura (m)",
		"onboarding.sex":           "Sexo",
		"onboarding.goal":          "Objetivo",
		"onboarding.goalIMC":       "IMC desejado",
		"onboarding.submit":        "Salvar perfil",
		"onboarding.required":      "Preencha nome, idade, peso e altura.",
		"dashboard.greeting":       "Olá",
		"dashboard.bmi":            "IMC",
		"dashboard.bmiUnavailable": "Informe peso e altura para calcular o IMC.",
		"dashboard.target":         "Peso alvo",
		"dashboard.streak":         "Sequência",
		"dashboard.workouts":       "Treinos",
		"dashboard.checkin":        "Confirmar presença",
		"dashboard.checkedIn":      "Presença confirmada hoje",
		"dashboard.routines":       "Seus treinos",
		"dashboard.advice":         "Dicas do Tatu",
		"bmi.underweight":          "Abaixo do peso",
		"bmi.normal":               "Peso normal",
		"bmi.overweight":           "Sobrepeso",
		"bmi.obesity1":             "Obesidade grau I",
		"bmi.obesity2":             "Obesidade grau II",
		"bmi.obesity3":             "Obesidade grau III",
		"workout.progress":         "Progresso",
		"workout.set":              "Série",
		"workout.weight":           "Carga (kg)",
		"workout.reps":             "Repetições",
		"workout.rpe":              "RPE",
		"workout.done":             "Feito",
		"workout.undo":             "Desfazer",
		"workout.save":             "Salvar",
		"workout.rest":             "Descanso",
		"workout.finish":           "Finalizar treino",
		"workout.abandon":          "Abandonar treino",
		"workout.abandonConfirm":   "Tem certeza? O treino em andamento será descartado.",
		"workout.exerciseDone":     "Exercício concluído!",
		"workout.nothingCompleted": "Conclua pelo menos uma série para finalizar.",
		"summary.title":            "Treino concluído",
		"summary.volume":           "Volume total",
		"history.title":            "Histórico de treinos",
		"history.empty":            "Nenhum treino registrado ainda.",
		"chat.title":               "Tatu IA",
		"chat.placeholder":         "Pergunte ao Tatu",
		"chat.send":                "Enviar",
		"settings.title":           "Ajustes",
		"settings.goalStreak":      "Meta de sequência (dias)",
		"settings.goalWorkouts":    "Meta de treinos",
		"settings.save":            "Salvar",
		"settings.logout":          "Sair",
		"settings.saved":           "Ajustes salvos.",
		"language.picker.label":    "Idioma",
		"language.name.pt":         "Português",
		"language.name.en":         "English",
		"common.cancel":            "Cancelar",
		"language.picker.submit":   "Alterar",
		"sex.unset":                "Prefiro não informar",
		"sex.feminino":             "Feminino",
		"sex.masculino":            "Masculino",
		"dashboard.exercises":      "exercícios",
		"dashboard.sets":           "séries",
		"dashboard.start":          "Começar treino",
		"dashboard.noRoutines":     "Nenhum treino atribuído a você ainda.",
		"workout.video":            "Ver vídeo",
		"workout.invalidRPE":       "O RPE deve ficar entre 6 e 10.",
		"workout.setCompleted":     "Desfaça a série antes de alterar os valores.",
		"workout.invalidValue":     "Valor inválido.",
		"chat.disabled":            "O Tatu IA não está configurado neste servidor.",
		"chat.tatu":                "Tatu",
		"chat.you":                 "Você",
		"chat.empty":               "Pergunte qualquer coisa sobre seu treino.",
		"chat.clear":               "Limpar conversa",
		"settings.invalid":         "Confira os campos destacados.",
		"settings.profile":         "Perfil",
		"settings.goals":           "Metas",
		"error.title":              "Algo deu errado",
		"error.body":               "Não foi possível concluir a ação. Tente novamente.",
		"notFound.title":           "Página não encontrada",
		"notFound.body":            "O endereço acessado não existe.",
		"common.back":              "Voltar",
		"common.home":              "Início",
	},
	English: {
		"app.title":                "TatuGym",
		"app.tagline":              "Personal trainer in your pocket.",
		"nav.dashboard":            "Home",
		"nav.history":              "History",
		"nav.chat":                 "Tatu AI",
		"nav.settings":             "Settings",
		"login.username":           "Username",
		"login.password":           "Password",
		"login.remember":           "Remember me",
		"login.submit":             "Sign in",
		"login.invalid":            "Invalid username or password.",
		"onboarding.title":         "Complete your profile",
		"onboarding.name":          "Name",
		"onboarding.age":           "Age",
		"onboarding.weight":        "Weight (kg)",
		"onboarding.height":        "Height (m)",
		"onboarding.sex":           "Sex",
		"onboarding.goal":          "Goal",
		"onboarding.goalIMC":       "Target BMI",
		"onboarding.submit":        "Save profile",
		"onboarding.required":      "Name, age, weight and height are required.",
		"dashboard.greeting":       "Hello",
		"dashboard.bmi":            "BMI",
		"dashboard.bmiUnavailable": "Enter your weight and height to calculate BMI.",
		"dashboard.target":         "Target weight",
		"dashboard.streak":         "Streak",
		"dashboard.workouts":       "Workouts",
		"dashboard.checkin":        "Check in",
		"dashboard.checkedIn":      "Checked in today",
		"dashboard.routines":       "Your routines",
		"dashboard.advice":         "Tips from Tatu",
		"bmi.underweight":          "Underweight",
		"bmi.normal":               "Normal",
		"bmi.overweight":           "Overweight",
		"bmi.obesity1":             "Obesity class I",
		"bmi.obesity2":             "Obesity class II",
		"bmi.obesity3":             "Obesity class III",
		"workout.progress":         "Progress",
		"workout.set":              "Set",
		"workout.weight":           "Weight (kg)",
		"workout.reps":             "Reps",
		"workout.rpe":              "RPE",
		"workout.done":             "Done",
		"workout.undo":             "Undo",
		"workout.save":             "Save",
		"workout.rest":             "Rest",
		"workout.finish":           "Finish workout",
		"workout.abandon":          "Abandon workout",
		"workout.abandonConfirm":   "Are you sure? The workout in progress will be discarded.",
		"workout.exerciseDone":     "Exercise complete!",
		"workout.nothingCompleted": "Complete at least one set to finish.",
		"summary.title":            "Workout complete",
		"summary.volume":           "Total volume",
		"history.title":            "Workout history",
		"history.empty":            "No workouts logged yet.",
		"chat.title":               "Tatu AI",
		"chat.placeholder":         "Ask Tatu",
		"chat.send":                "Send",
		"settings.title":           "Settings",
		"settings.goalStreak":      "Streak goal (days)",
		"settings.goalWorkouts":    "Workout goal",
		"settings.save":            "Save",
		"settings.logout":          "Sign out",
		"settings.saved":           "Settings saved.",
		"language.picker.label":    "Language",
		"language.name.pt":         "Português",
		"language.name.en":         "English",
		"common.cancel":            "Cancel",
		"language.picker.submit":   "Change",
		"sex.unset":                "Prefer not to say",
		"sex.feminino":             "Female",
		"sex.masculino":            "Male",
		"dashboard.exercises":      "exercises",
		"dashboard.sets":           "sets",
		"dashboard.start":          "Start workout",
		"dashboard.noRoutines":     "No routines assigned to you yet.",
		"workout.video":            "Watch video",
		"workout.invalidRPE":       "RPE must be between 6 and 10.",
		"workout.setCompleted":     "Undo the set before changing its values.",
		"workout.invalidValue":     "Invalid value.",
		"chat.disabled":            "Tatu AI is not configured on this server.",
		"chat.tatu":                "Tatu",
		"chat.you":                 "You",
		"chat.empty":               "Ask anything about your training.",
		"chat.clear":               "Clear conversation",
		"settings.invalid":         "Check the highlighted fields.",
		"settings.profile":         "Profile",
		"settings.goals":           "Goals",
		"error.title":              "Something went wrong",
		"error.body":               "The action could not be completed. Please try again.",
		"notFound.title":           "Page not found",
		"notFound.body":            "The address you visited does not exist.",
		"common.back":              "Back",
		"common.home":              "Home",
	},
}

// SupportedLanguages returns a list of all supported languages.
func SupportedLanguages() []Language {
	return []Language{Portuguese, English}
}

// IsSupported checks if a language is supported.
func IsSupported(lang Language) bool {
	_, ok := translations[lang]
	return ok
}

// Translate returns the translation of key, trying lang, then DefaultLanguage, then returning key itself.
func Translate(lang Language, key string) string {
	if translation, ok := translations[lang][key]; ok {
		return translation
	}
	if translation, ok := translations[DefaultLanguage][key]; ok {
		return translation
	}
	return key
}
