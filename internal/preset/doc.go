// Package preset saves and restores earbud settings.
//
// A preset is a YAML file listing stored properties and the values they
// should have:
//
//	version: 1
//	name: commute
//	device: HUAWEI FreeBuds Pro 3
//	settings:
//	  - category: anc
//	    key: mode
//	    value: cancellation
//	  - category: config
//	    key: auto_pause
//	    value: "true"
//
// Applying a preset sends one command per setting that differs from the
// device, then polls the property store until every value reads back. If
// verification fails the previous values are restored:
//
//	res := preset.SafeApply(ctx, manager, p, nil)
//	fmt.Println(res)
//
// Settings are matched against the controls the connected device exposes,
// so a preset saved from one model can be applied to another that shares
// some of its properties; the rest are reported as unsupported.
package preset
