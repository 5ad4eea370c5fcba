package seeders

type studioSeed struct {
	Name     string
	Capacity int
}

type studentSeed struct {
	FullName string
	Phone    string
}

// scheduleSeed references studios and instructors by name. Zero
// CapacityOverride means the studio capacity applies.
type scheduleSeed struct {
	Studio           string
	Instructor       string
	DayOfWeek        int
	StartTime        string
	EndTime          string
	CapacityOverride int
}

var studiosData = []studioSeed{
	{Name: "Reformer Room", Capacity: 8},
	{Name: "Mat Room", Capacity: 14},
	{Name: "Private Suite", Capacity: 3},
}

var instructorsData = []string{
	"Valeria Ortiz",
	"Diego Ramírez",
	"Camila Herrera",
}

var studentsData = []studentSeed{
	{FullName: "Ana Torres", Phone: "+525511110001"},
	{FullName: "Luis Vega", Phone: "+525511110002"},
	{FullName: "Marta Ruiz", Phone: "+525511110003"},
	{FullName: "Sofía Méndez", Phone: "+525511110004"},
	{FullName: "Jorge Castillo", Phone: "+525511110005"},
	{FullName: "Paula Navarro", Phone: "+525511110006"},
}

var classSchedulesData = []scheduleSeed{
	{Studio: "Reformer Room", Instructor: "Valeria Ortiz", DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"},
	{Studio: "Reformer Room", Instructor: "Valeria Ortiz", DayOfWeek: 3, StartTime: "08:00", EndTime: "09:00"},
	{Studio: "Reformer Room", Instructor: "Diego Ramírez", DayOfWeek: 2, StartTime: "19:00", EndTime: "20:00"},
	{Studio: "Reformer Room", Instructor: "Diego Ramírez", DayOfWeek: 4, StartTime: "19:00", EndTime: "20:00"},
	{Studio: "Mat Room", Instructor: "Camila Herrera", DayOfWeek: 1, StartTime: "18:00", EndTime: "19:00"},
	{Studio: "Mat Room", Instructor: "Camila Herrera", DayOfWeek: 5, StartTime: "18:00", EndTime: "19:00", CapacityOverride: 10},
	{Studio: "Mat Room", Instructor: "Valeria Ortiz", DayOfWeek: 6, StartTime: "10:00", EndTime: "11:00"},
	{Studio: "Private Suite", Instructor: "Diego Ramírez", DayOfWeek: 3, StartTime: "12:00", EndTime: "13:00"},
}
