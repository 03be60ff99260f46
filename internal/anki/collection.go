package anki

// Rows of the collection database inside a package. Column names follow
// Anki's schema 11, which every current Anki release still imports.

const collectionSchema = `
CREATE TABLE col (
    id integer primary key, crt integer not null, mod integer not null,
    scm integer not null, ver integer not null, dty integer not null,
    usn integer not null, ls integer not null, conf text not null,
    models text not null, decks text not null, dconf text not null,
    tags text not null
);
CREATE TABLE notes (
    id integer primary key, guid text not null, mid integer not null,
    mod integer not null, usn integer not null, tags text not null,
    flds text not null, sfld integer not null, csum integer not null,
    flags integer not null, data text not null
);
CREATE TABLE cards (
    id integer primary key, nid integer not null, did integer not null,
    ord integer not null, mod integer not null, usn integer not null,
    type integer not null, queue integer not null, due integer not null,
    ivl integer not null, factor integer not null, reps integer not null,
    lapses integer not null, left integer not null, odue integer not null,
    odid integer not null, flags integer not null, data text not null
);
CREATE TABLE revlog (
    id integer primary key, cid integer not null, usn integer not null,
    ease integer not null, ivl integer not null, lastIvl integer not null,
    factor integer not null, time integer not null, type integer not null
);
CREATE TABLE graves (usn integer not null, oid integer not null, type integer not null);
CREATE INDEX ix_notes_usn on notes (usn);
CREATE INDEX ix_cards_usn on cards (usn);
CREATE INDEX ix_revlog_usn on revlog (usn);
CREATE INDEX ix_cards_nid on cards (nid);
CREATE INDEX ix_cards_sched on cards (did, queue, due);
CREATE INDEX ix_revlog_cid on revlog (cid);
CREATE INDEX ix_notes_csum on notes (csum);
`

const schemaVersion = 11

type colRow struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	Crt    int64  `gorm:"column:crt"`
	Mod    int64  `gorm:"column:mod"`
	Scm    int64  `gorm:"column:scm"`
	Ver    int    `gorm:"column:ver"`
	Dty    int    `gorm:"column:dty"`
	Usn    int    `gorm:"column:usn"`
	Ls     int64  `gorm:"column:ls"`
	Conf   string `gorm:"column:conf"`
	Models string `gorm:"column:models"`
	Decks  string `gorm:"column:decks"`
	DConf  string `gorm:"column:dconf"`
	Tags   string `gorm:"column:tags"`
}

func (colRow) TableName() string { return "col" }

type noteRow struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	GUID  string `gorm:"column:guid"`
	Mid   int64  `gorm:"column:mid"`
	Mod   int64  `gorm:"column:mod"`
	Usn   int    `gorm:"column:usn"`
	Tags  string `gorm:"column:tags"`
	Flds  string `gorm:"column:flds"`
	Sfld  string `gorm:"column:sfld"`
	Csum  int64  `gorm:"column:csum"`
	Flags int    `gorm:"column:flags"`
	Data  string `gorm:"column:data"`
}

func (noteRow) TableName() string { return "notes" }

type cardRow struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	Nid    int64  `gorm:"column:nid"`
	Did    int64  `gorm:"column:did"`
	Ord    int    `gorm:"column:ord"`
	Mod    int64  `gorm:"column:mod"`
	Usn    int    `gorm:"column:usn"`
	Type   int    `gorm:"column:type"`
	Queue  int    `gorm:"column:queue"`
	Due    int64  `gorm:"column:due"`
	Ivl    int    `gorm:"column:ivl"`
	Factor int    `gorm:"column:factor"`
	Reps   int    `gorm:"column:reps"`
	Lapses int    `gorm:"column:lapses"`
	Left   int    `gorm:"column:left"`
	Odue   int64  `gorm:"column:odue"`
	Odid   int64  `gorm:"column:odid"`
	Flags  int    `gorm:"column:flags"`
	Data   string `gorm:"column:data"`
}

func (cardRow) TableName() string { return "cards" }

type modelField struct {
	Name   string        `json:"name"`
	Ord    int           `json:"ord"`
	Sticky bool          `json:"sticky"`
	RTL    bool          `json:"rtl"`
	Font   string        `json:"font"`
	Size   int           `json:"size"`
	Media  []interface{} `json:"media"`
}

type modelTemplate struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	Qfmt  string `json:"qfmt"`
	Afmt  string `json:"afmt"`
	Did   *int64 `json:"did"`
	Bqfmt string `json:"bqfmt"`
	Bafmt string `json:"bafmt"`
}

type noteModel struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      int             `json:"type"`
	Mod       int64           `json:"mod"`
	Usn       int             `json:"usn"`
	Sortf     int             `json:"sortf"`
	Did       int64           `json:"did"`
	Tmpls     []modelTemplate `json:"tmpls"`
	Flds      []modelField    `json:"flds"`
	CSS       string          `json:"css"`
	LatexPre  string          `json:"latexPre"`
	LatexPost string          `json:"latexPost"`
	Tags      []string        `json:"tags"`
	Vers      []int           `json:"vers"`
	Req       []interface{}   `json:"req"`
}

type deck struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Mod       int64  `json:"mod"`
	Usn       int    `json:"usn"`
	LrnToday  [2]int `json:"lrnToday"`
	RevToday  [2]int `json:"revToday"`
	NewToday  [2]int `json:"newToday"`
	TimeToday [2]int `json:"timeToday"`
	Collapsed bool   `json:"collapsed"`
	Desc      string `json:"desc"`
	Dyn       int    `json:"dyn"`
	Conf      int    `json:"conf"`
	ExtendNew int    `json:"extendNew"`
	ExtendRev int    `json:"extendRev"`
}

const latexPreamble = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"

func newNoteModel(id, did, mod int64) noteModel {
	m := noteModel{
		ID:        id,
		Name:      ModelName,
		Mod:       mod,
		Usn:       -1,
		Did:       did,
		CSS:       ModelCSS,
		LatexPre:  latexPreamble,
		LatexPost: "\\end{document}",
		Tags:      []string{},
		Vers:      []int{},
		Req:       []interface{}{[]interface{}{0, "any", []int{0}}},
		Tmpls: []modelTemplate{{
			Name: TemplateName,
			Qfmt: QuestionTemplate,
			Afmt: AnswerTemplate,
		}},
	}
	for i, name := range Fields {
		m.Flds = append(m.Flds, modelField{Name: name, Ord: i, Font: "Arial", Size: 20, Media: []interface{}{}})
	}
	return m
}

func newDeck(id int64, name string, mod int64) deck {
	return deck{ID: id, Name: name, Mod: mod, Usn: -1, Conf: 1, ExtendNew: 10, ExtendRev: 50}
}

func defaultCollectionConf(modelID int64) map[string]interface{} {
	return map[string]interface{}{
		"nextPos":       1,
		"estTimes":      true,
		"activeDecks":   []int{1},
		"sortType":      "noteFld",
		"timeLim":       0,
		"sortBackwards": false,
		"addToCur":      true,
		"curDeck":       1,
		"newBury":       true,
		"newSpread":     0,
		"dueCounts":     true,
		"curModel":      modelID,
		"collapseTime":  1200,
	}
}

func defaultDeckConf() map[string]interface{} {
	return map[string]interface{}{
		"1": map[string]interface{}{
			"id":       1,
			"name":     "Default",
			"mod":      0,
			"usn":      0,
			"maxTaken": 60,
			"autoplay": true,
			"timer":    0,
			"replayq":  true,
			"dyn":      false,
			"new": map[string]interface{}{
				"bury":          true,
				"delays":        []int{1, 10},
				"initialFactor": 2500,
				"ints":          []int{1, 4, 7},
				"order":         1,
				"perDay":        20,
				"separate":      true,
			},
			"lapse": map[string]interface{}{
				"delays":      []int{10},
				"leechAction": 0,
				"leechFails":  8,
				"minInt":      1,
				"mult":        0,
			},
			"rev": map[string]interface{}{
				"bury":     true,
				"ease4":    1.3,
				"fuzz":     0.05,
				"ivlFct":   1,
				"maxIvl":   36500,
				"minSpace": 1,
				"perDay":   100,
			},
		},
	}
}
