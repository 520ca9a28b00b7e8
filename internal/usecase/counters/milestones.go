package counters

import "fmt"

// Tabla estática de valores señalados. Solo se consulta cuando un mensaje
// incrementa exactamente un contador; con varios incrementos a la vez se
// responde con el resumen normal.
type milestoneRule struct {
	values  map[int]struct{}
	message func(name string, count int) string
}

var milestoneRules = []milestoneRule{
	{
		values: valueSet(114, 1145, 11451, 114514),
		message: func(name string, count int) string {
			return fmt.Sprintf("🎺 «%s» llegó a %d... un número con mucha historia.", name, count)
		},
	},
	{
		values: valueSet(1919, 19191, 191919),
		message: func(name string, count int) string {
			return fmt.Sprintf("😫 «%s» marca %d. ¡Qué dolor, qué dolor!", name, count)
		},
	},
	{
		values: valueSet(520, 1314),
		message: func(name string, count int) string {
			return fmt.Sprintf("💘 «%s» llegó a %d. Esto ya es amor.", name, count)
		},
	},
	{
		values: valueSet(6, 66, 666, 6666),
		message: func(name string, count int) string {
			return fmt.Sprintf("👏 «%s» va por %d. ¡Tremendo!", name, count)
		},
	},
	{
		values: valueSet(233, 2333, 23333),
		message: func(string, int) string {
			return "😂 2333... ¡no puedo parar de reír!"
		},
	},
	{
		values: valueSet(100, 1000, 10000, 100000),
		message: func(name string, count int) string {
			return fmt.Sprintf("🎉 ¡Felicidades! «%s» alcanzó las %d menciones.", name, count)
		},
	},
}

func valueSet(values ...int) map[int]struct{} {
	set := make(map[int]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// MilestoneMessage devuelve el mensaje temático para un conteo señalado. La
// primera regla cuya tabla contiene el valor gana; ok=false si ninguna lo
// contiene.
func MilestoneMessage(name string, count int) (string, bool) {
	for _, rule := range milestoneRules {
		if _, ok := rule.values[count]; ok {
			return rule.message(name, count), true
		}
	}
	return "", false
}
