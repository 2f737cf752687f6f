package nlu

import (
	"time"

	"golang.org/x/sync/errgroup"
)

// Extract executa todos os extratores sobre a mensagem e reúne as
// entidades reconhecidas em um único conjunto
func Extract(text string) EntitySet {
	return ExtractAt(text, time.Now())
}

// ExtractAt permite injetar o instante de referência usado na resolução
// de períodos relativos. Os extratores são independentes entre si e rodam
// em paralelo; nenhum deles produz erro
func ExtractAt(text string, now time.Time) EntitySet {
	var set EntitySet
	var g errgroup.Group

	g.Go(func() error { set.Amount = ExtractAmount(text); return nil })
	g.Go(func() error { set.Document = ExtractDocument(text); return nil })
	g.Go(func() error { set.Name = ExtractName(text); return nil })
	g.Go(func() error { set.Service = ExtractService(text); return nil })
	g.Go(func() error { set.Period = ExtractPeriodAt(text, now); return nil })

	_ = g.Wait()
	return set
}
