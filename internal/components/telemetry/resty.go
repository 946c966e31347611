package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"fimfiction/lib/restyutil"

	"github.com/go-resty/resty/v2"
)

const (
	report_resty_request      = "resty.request"
	report_resty_response     = "resty.response"
	report_resty_error_status = "resty.error-status"
)

type instrumentResty struct {
	tel       API
	idcounter *uint64
}

func InstrumentResty(client *resty.Client, tel API) {
	var idcounter uint64
	i := instrumentResty{tel: tel, idcounter: &idcounter}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id uint64
	// startTime is only used to measure the duration of the request.
	startTime time.Time
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	start := time.Now()
	ctx := req.Context()

	id := atomic.AddUint64(i.idcounter, 1)
	ctx = context.WithValue(ctx, reqCtxKey, reqCtx{
		id:        id,
		startTime: start,
	})
	i.tel.ReportDebug(report_resty_request, id, req.Method, req.URL)

	req.SetContext(ctx)
	return nil
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	end := time.Now()
	ctx := res.Request.Context()

	reqCtx, ok := ctx.Value(reqCtxKey).(reqCtx)
	var duration time.Duration
	if ok {
		duration = end.Sub(reqCtx.startTime)
	}

	i.tel.ReportDebug(
		report_resty_response,
		reqCtx.id,
		duration.String(),
		res.Status(),
	)
	if res.IsError() {
		i.tel.ReportWarning(report_resty_error_status, reqCtx.id, restyutil.FormatMessage(res))
	}

	return nil
}

func (i instrumentResty) onError(req *resty.Request, err error) {
	end := time.Now()
	ctx := req.Context()

	// a middleware registered before this one may have failed the request
	reqCtx, ok := ctx.Value(reqCtxKey).(reqCtx)
	var duration time.Duration
	if ok {
		duration = end.Sub(reqCtx.startTime)
	}

	i.tel.ReportBroken(
		report_resty_response,
		err,
		restyutil.FormatRequest(req),
		duration,
	)
}
