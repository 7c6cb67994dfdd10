package planner

import "strings"

// Subject is a syllabus subject with its default topic list.
type Subject struct {
	Key    string   `json:"key"`
	Name   string   `json:"name"`
	Topics []string `json:"topics"`
}

// Subjects is the default syllabus, in plan order.
var Subjects = []Subject{
	{
		Key:  "phy",
		Name: "Physics",
		Topics: []string{
			"Kinematics", "NLM", "Work-Energy-Power", "Rotation", "Fluids", "Thermodynamics",
			"Waves", "Optics", "Electrostatics", "Current Electricity", "Magnetism", "Modern Physics",
		},
	},
	{
		Key:  "chem",
		Name: "Chemistry",
		Topics: []string{
			"Physical: Mole Concept", "Thermo & Equilibrium", "Electrochemistry", "Kinetics",
			"Inorganic: Periodic Table", "Chemical Bonding", "s/p/d/f-block", "Coordination",
			"Organic: GOC", "Hydrocarbons", "Carbonyls", "Amines & Biomolecules",
		},
	},
	{
		Key:  "math",
		Name: "Maths",
		Topics: []string{
			"Quadratic", "Sequence & Series", "Binomial", "Complex No.", "Matrices & Determinants",
			"Limit/Continuity/DIFF", "Application of Derivatives", "Integration",
			"Differential Equations", "Vector/3D", "Probability", "Conics",
		},
	},
}

// SubjectByKey returns the subject with the given key.
func SubjectByKey(key string) (Subject, bool) {
	for _, s := range Subjects {
		if s.Key == key {
			return s, true
		}
	}
	return Subject{}, false
}

// NormalizeSubject maps a subject key or display name, in any case, to its
// key. Unknown subjects are returned trimmed and unchanged.
func NormalizeSubject(s string) string {
	s = strings.TrimSpace(s)
	for _, sub := range Subjects {
		if strings.EqualFold(s, sub.Key) || strings.EqualFold(s, sub.Name) {
			return sub.Key
		}
	}
	return s
}
