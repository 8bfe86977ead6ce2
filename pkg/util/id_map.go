package util

// IDMap interns strings (street names, road classes) into small integer ids.
type IDMap struct {
	StrToID map[string]int
	IDToStr map[int]string
}

func NewIdMap() IDMap {
	return IDMap{
		StrToID: make(map[string]int),
		IDToStr: make(map[int]string),
	}
}

// GetID return the id of str, assigning the next free id on first sight.
func (m IDMap) GetID(str string) int {
	if id, ok := m.StrToID[str]; ok {
		return id
	}
	id := len(m.StrToID)
	m.StrToID[str] = id
	m.IDToStr[id] = str
	return id
}

func (m IDMap) GetStr(id int) string {
	return m.IDToStr[id]
}

func (m IDMap) SetID(id int, str string) {
	m.StrToID[str] = id
	m.IDToStr[id] = str
}

func (m IDMap) Len() int {
	return len(m.StrToID)
}
