// Package fuzztests houses Go fuzz harnesses for the containers and the
// scope script pipeline (parse -> check -> eval). The goal is to catch
// panics and broken invariants on arbitrary inputs.
//
// Назначение: прогонять случайные последовательности операций над картами
// областей видимости и случайные TOML-скрипты через Check/Eval.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/scope, internal/scopescript, internal/diag,
// internal/testkit.

package fuzztests
