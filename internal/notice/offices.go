package notice

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultOffice это адрес, если кампус неизвестен
const DefaultOffice = "Guidance and Counseling Office, Student Services Building"

// Offices это таблица кабинетов консультаций по кампусам
type Offices struct {
	Default  string            `yaml:"default"`
	Campuses map[string]string `yaml:"campuses"`
}

// DefaultOffices возвращает встроенную таблицу кабинетов
func DefaultOffices() Offices {
	return Offices{
		Default: DefaultOffice,
		Campuses: map[string]string{
			"main":     "Guidance Office, Main Campus, Student Services Building, Room 101",
			"north":    "Counseling Center, North Campus, Administration Building, 2nd Floor",
			"south":    "Guidance Office, South Campus, Library Annex, Room 12",
			"downtown": "Wellness Hub, Downtown Campus, Tower B, 5th Floor",
		},
	}
}

// LoadOffices читает таблицу из YAML и накладывает её поверх встроенной
func LoadOffices(path string) (Offices, error) {
	offices := DefaultOffices()
	if path == "" {
		return offices, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Offices{}, fmt.Errorf("read offices file: %w", err)
	}

	var override Offices
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Offices{}, fmt.Errorf("parse offices file: %w", err)
	}

	if override.Default != "" {
		offices.Default = override.Default
	}
	for campus, office := range override.Campuses {
		offices.Campuses[campusKey(campus)] = office
	}

	return offices, nil
}

// Lookup ищет кабинет по кампусу без учёта регистра
func (o Offices) Lookup(campus string) (string, bool) {
	key := campusKey(campus)
	if key == "" {
		return "", false
	}
	office, ok := o.Campuses[key]
	return office, ok
}

// normalized возвращает копию таблицы с ключами в нижнем регистре
func (o Offices) normalized() Offices {
	keys := make([]string, 0, len(o.Campuses))
	for campus := range o.Campuses {
		keys = append(keys, campus)
	}
	sort.Strings(keys)

	out := Offices{Default: o.Default, Campuses: make(map[string]string, len(keys))}
	for _, campus := range keys {
		out.Campuses[campusKey(campus)] = o.Campuses[campus]
	}
	return out
}

func campusKey(campus string) string {
	return strings.ToLower(strings.TrimSpace(campus))
}
