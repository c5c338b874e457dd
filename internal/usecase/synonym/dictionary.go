package synonym

// defaultGroups are equivalence classes of skill labels. The first entry is the canonical form.
var defaultGroups = [][]string{
	{"javascript", "js", "ecmascript", "es6"},
	{"typescript", "ts"},
	{"react", "react.js", "reactjs"},
	{"vue", "vue.js", "vuejs"},
	{"angular", "angularjs", "angular.js"},
	{"node", "node.js", "nodejs"},
	{"python", "py"},
	{"go", "golang"},
	{"c#", "csharp"},
	{".net", "dotnet"},
	{"c++", "cpp"},
	{"postgresql", "postgres", "psql"},
	{"mongodb", "mongo"},
	{"kubernetes", "k8s"},
	{"aws", "amazon web services"},
	{"gcp", "google cloud platform", "google cloud"},
	{"azure", "microsoft azure"},
	{"ci/cd", "continuous integration", "continuous delivery"},
	{"machine learning", "ml", "apprentissage automatique"},
	{"artificial intelligence", "ai", "ia", "intelligence artificielle"},
	{"natural language processing", "nlp"},
	{"ux", "user experience"},
	{"ui", "user interface"},
	{"seo", "search engine optimization", "referencement naturel"},
	{"crm", "customer relationship management"},
	{"erp", "enterprise resource planning"},
	{"project management", "gestion de projet"},
	{"agile", "methodes agiles"},
	{"english", "anglais"},
	{"french", "francais"},
	{"spanish", "espagnol"},
	{"german", "allemand"},
	{"accounting", "comptabilite"},
	{"human resources", "hr", "rh", "ressources humaines"},
	{"customer service", "service client", "relation client"},
	{"excel", "microsoft excel", "ms excel"},
	{"photoshop", "adobe photoshop"},
	{"driving license", "permis b", "permis de conduire"},
	{"forklift", "caces", "cariste"},
}

// defaultBroader maps a framework or tool to the broader skill it belongs to. The link
// expands both ways: react.js adds javascript and js adds react.
var defaultBroader = map[string]string{
	"react":   "javascript",
	"vue":     "javascript",
	"angular": "typescript",
	"node":    "javascript",
	"django":  "python",
	"flask":   "python",
	"fastapi": "python",
	"spring":  "java",
	"laravel": "php",
	"symfony": "php",
	"rails":   "ruby",
}
