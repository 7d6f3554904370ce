// data.go

package draft

// DefaultMetaProfile 默认版本强度配置
const DefaultMetaProfile = "BUFFIES"

// 每方禁用与选择数量
const (
	BanCount  = 3
	PickCount = 3
)

// Actor 选角回合的行动方
type Actor string

const (
	ActorUser Actor = "USER"
	ActorAI   Actor = "AI"
)

// TurnOrder 固定的选角顺序
var TurnOrder = []Actor{ActorUser, ActorAI, ActorAI, ActorUser, ActorUser, ActorAI}

// Brawlers 可选英雄，顺序即平局时的优先顺序
var Brawlers = []string{
	"Shelly", "Colt", "Brock", "Nita", "Jessie", "Bull", "Rosa", "El Primo",
	"Poco", "Darryl", "Piper", "Belle", "Gene", "Spike", "Crow", "Leon",
	"Max", "Sandy", "Mortis", "Frank", "Buster", "Tara", "Pam", "Gus",
	"Juju", "Ruffs", "Carl", "Mina", "Otis", "Alli", "Griff", "Meeple",
	"Squeak", "Surge", "Trunk", "Sam", "Cordelius", "Emz", "Maisie", "Penny",
	"Gale", "Janet", "Amber", "Charlie", "Lily", "Hank", "Moe", "Chester",
	"Finx", "Kenji", "Ash", "Rico", "Melodie", "Byron", "Draco", "Lumi",
}

var metaPower = map[string]map[string]float64{
	"BUFFIES": {
		"Shelly": 1, "Mortis": 1, "Spike": 1, "Colt": 1, "Frank": 1, "Emz": 1,
	},
}

var mapPriority = map[string]float64{
	"Piper": 2, "Belle": 2, "Tara": 2, "Juju": 2, "Mina": 2, "Cordelius": 2,
	"Moe": 2, "Finx": 2, "Lumi": 2,

	"Brock": 1, "Colt": 1, "Gene": 1, "Spike": 1, "Sandy": 1, "Rosa": 1,
	"Bull": 1, "Mortis": 1, "Buster": 1, "Pam": 1, "Gus": 1, "Ruffs": 1,
	"Carl": 1, "Otis": 1, "Alli": 1, "Griff": 1, "Meeple": 1, "Squeak": 1,
	"Surge": 1, "Sam": 1, "Emz": 1, "Maisie": 1, "Penny": 1, "Gale": 1,
	"Janet": 1, "Amber": 1, "Charlie": 1, "Lily": 1, "Rico": 1, "Chester": 1,
	"Kenji": 1, "Melodie": 1, "Byron": 1, "Poco": 1, "Draco": 1,

	"Trunk": 0, "Hank": 0, "Ash": 0, "Frank": 0,
}

// countersByUserPick 用户最近一次选择对应的克制英雄
var countersByUserPick = map[string][]string{
	"Bull":      {"Shelly", "Spike"},
	"Rosa":      {"Shelly", "Spike"},
	"El Primo":  {"Shelly", "Spike"},
	"Darryl":    {"Shelly"},
	"Jessie":    {"Belle"},
	"Nita":      {"Belle"},
	"Poco":      {"Spike", "Emz"},
	"Piper":     {"Gene"},
	"Brock":     {"Gene"},
	"Mortis":    {"Shelly", "Spike", "Nita"},
	"Frank":     {"Shelly", "Spike", "Colt"},
	"Buster":    {"Spike", "Colt", "Belle"},
	"Tara":      {"Gene", "Belle"},
	"Pam":       {"Spike", "Belle"},
	"Gus":       {"Mortis", "Leon"},
	"Juju":      {"Gene", "Belle"},
	"Ruffs":     {"Spike", "Belle"},
	"Carl":      {"Shelly", "Spike"},
	"Mina":      {"Gene", "Belle"},
	"Otis":      {"Gene", "Belle"},
	"Alli":      {"Shelly", "Spike", "Nita"},
	"Griff":     {"Belle", "Gene"},
	"Meeple":    {"Belle", "Gene"},
	"Squeak":    {"Gene", "Belle"},
	"Surge":     {"Otis", "Belle", "Gene"},
	"Trunk":     {"Colt", "Spike", "Emz"},
	"Sam":       {"Shelly", "Spike", "Otis"},
	"Cordelius": {"Belle", "Gene", "Otis"},
	"Emz":       {"Gene", "Piper"},
	"Maisie":    {"Belle", "Gene"},
	"Penny":     {"Mortis", "Gale", "Gene"},
	"Gale":      {"Gene", "Belle", "Mortis"},
	"Janet":     {"Belle", "Gene", "Piper"},
	"Amber":     {"Spike", "Otis", "Gene"},
	"Charlie":   {"Gene", "Belle", "Spike"},
	"Lily":      {"Shelly", "Spike", "Emz"},
	"Hank":      {"Spike", "Otis", "Colt"},
	"Moe":       {"Belle", "Gene", "Piper"},
	"Chester":   {"Gene", "Belle"},
	"Finx":      {"Belle", "Gene", "Piper"},
	"Kenji":     {"Shelly", "Spike", "Otis"},
	"Ash":       {"Shelly", "Emz", "Spike"},
	"Rico":      {"Piper", "Gene", "Spike"},
	"Melodie":   {"Gene", "Belle", "Otis"},
	"Byron":     {"Mortis", "Crow"},
	"Draco":     {"Spike", "Otis"},
	"Lumi":      {"Gene", "Belle"},
}

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// 原型分类，用于血量加成
var supports = setOf("Gus", "Pam", "Ruffs", "Poco", "Byron", "Lumi")

var melees = setOf("Frank", "Bull", "Hank", "Ash", "El Primo", "Mortis", "Sam",
	"Kenji", "Lily", "Rosa", "Darryl", "Draco", "Trunk")

var snipersPoke = setOf("Piper", "Belle", "Brock", "Colt", "Rico", "Maisie", "Janet")

// controlPicks 控制型英雄，阵容中有任意一个加分
var controlPicks = []string{"Tara", "Gene", "Belle", "Juju", "Mina", "Otis", "Griff",
	"Meeple", "Squeak", "Spike", "Cordelius", "Emz", "Maisie", "Moe", "Finx",
	"Rico", "Lumi", "Charlie"}

var damagePicks = []string{"Colt", "Spike", "Carl", "Emz", "Rico", "Chester"}

var bruiserPicks = []string{"Buster", "Rosa", "Sam", "Ash", "Draco"}

var diveUnits = []string{"Mortis", "Alli", "Crow", "Lily", "Kenji", "Melodie"}

// hardStops 能阻止双突进的英雄
var hardStops = []string{"Otis", "Spike", "Rico", "Cordelius"}

var supportUnits = []string{"Gus", "Ruffs", "Pam", "Poco", "Byron", "Lumi"}

var disablePicks = []string{"Spike", "Otis", "Rico"}

var zonePicks = []string{"Emz", "Chester", "Finx", "Melodie", "Lumi", "Squeak", "Maisie", "Amber"}

var countedMelees = []string{"Frank", "Bull", "Hank", "Ash", "El Primo", "Mortis", "Sam", "Kenji", "Lily", "Trunk"}

// combo 同时拥有全部英雄时的加减分
type combo struct {
	members []string
	score   float64
}

// combos 按顺序累加的协同与反协同规则
var combos = []combo{
	{[]string{"Squeak"}, 1},
	{[]string{"Colt", "Squeak"}, 1},
	{[]string{"Meeple", "Squeak"}, 0.5},
	{[]string{"Surge", "Trunk"}, -1},

	{[]string{"Spike", "Frank", "Lily"}, 1.5},
	{[]string{"Emz", "Maisie", "Rico"}, -1},
	{[]string{"Frank", "Alli", "Carl"}, 1.2},
	{[]string{"Rico", "Byron", "Lily"}, -1.2},

	{[]string{"Penny", "Mortis"}, 0.5},
	{[]string{"Penny", "Tara"}, 0.5},
	{[]string{"Mortis", "Tara"}, 0.5},
	{[]string{"Penny", "Mortis", "Tara"}, 0.7},
	{[]string{"Moe", "Byron", "Gale"}, -0.8},

	{[]string{"Shelly", "Janet"}, 0.6},
	{[]string{"Janet", "Ruffs"}, 0.4},
	{[]string{"Shelly", "Janet", "Ruffs"}, 0.8},
	{[]string{"Meeple", "Amber", "Ash"}, -0.8},

	{[]string{"Mortis", "Tara"}, 0.6},
	{[]string{"Pam", "Tara"}, 0.3},
	{[]string{"Pam", "Mortis"}, 0.2},
	{[]string{"Mortis", "Tara", "Pam"}, 0.7},
	{[]string{"Hank", "Charlie", "Gus"}, -0.8},
}

// Tuning 阵容评估的可调参数
type Tuning struct {
	ComebackBonus           float64
	DoubleDiveNoStopPenalty float64
	SupportPressurePenalty  float64
	HankPenalty             float64
	KenjiPenalty            float64
	FrankPenalty            float64
}

// DefaultTuning 默认参数，所有版本配置共用
var DefaultTuning = Tuning{
	ComebackBonus:           1.5,
	DoubleDiveNoStopPenalty: 1.0,
	SupportPressurePenalty:  2.0,
	HankPenalty:             1.0,
	KenjiPenalty:            0.5,
	FrankPenalty:            0.8,
}
